// Package services implements the application layer between the hosts
// (HTTP server, batch processor) and the KPI pipeline.
//
// AnalysisService validates run parameters, decodes the uploaded exports
// concurrently and hands the raw tables to the pipeline manager. The last
// successful result stays available through Latest and LatestProductivity
// until the next run replaces it.
//
// HealthService reports liveness, readiness and build information.
//
//	svc := services.NewAnalysisService(manager, parser, nil, logger)
//	result, err := svc.AnalyzeFiles(ctx, map[domain.SourceKind]string{
//	    domain.SourceAttendance: "inbox/pointage.xlsx",
//	}, domain.AnalysisParams{Month: "2024-03"})
package services
