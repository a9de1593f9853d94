// Package files finds exports in an inbox directory and watches it.
//
// Discovery recognises each workbook's kind from the column catalog's file
// name patterns and keeps the newest file per kind. Watcher folds bursts of
// file system events into one callback, so the batch processor re-runs the
// full pipeline once after a user drops a set of exports.
//
// Example usage:
//
//	inbox, unknown, err := files.NewDiscovery(catalog, logger).Scan("inbox")
//
//	w := files.NewWatcher("inbox", 2*time.Second, rerun, logger)
//	err = w.Run(ctx)
package files
