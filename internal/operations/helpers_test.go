package operations

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tafa1618/Copilot-Process/internal/config"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func table(source domain.SourceKind, headers []string, rows ...[]string) *domain.RawTable {
	t := &domain.RawTable{Source: source, FileName: string(source) + ".xlsx", Sheet: "Sheet1", Headers: headers}
	for i, r := range rows {
		t.Records = append(t.Records, domain.RawRecord{Line: i + 2, Cells: r})
	}
	return t
}

func attendanceTable() *domain.RawTable {
	return table(domain.SourceAttendance,
		[]string{"Saisie heures - Date", "Salarié - Nom", "Salarié - Equipe(Nom)", "Facturable", "Hr_travaillée", "Hr_Théorique"},
		[]string{"2024-01-09", "Diallo", "Atelier", "4", "8", "8"},
		[]string{"2024-02-06", "Diallo", "Atelier", "6", "8", "8"},
		[]string{"2024-03-05", "Diallo", "Atelier", "3", "4", "8"},
		[]string{"2024-03-05", "Diallo", "Atelier", "3", "4", "8"},
		[]string{"2024-03-09", "Sow", "Mines", "0", "0", "0"},
		[]string{"2024-03-05", "Sow", "Mines", "5", "10", "8"},
		[]string{"", "Sow", "Mines", "5", "10", "8"},
	)
}

func workOrdersTable() *domain.RawTable {
	return table(domain.SourceWorkOrders,
		[]string{"N° OR (Segment)", "Equipe", "Technicien", "Type OR", "Temps vendu", "Temps prévu", "Temps_consomé_BO", "Date OR"},
		[]string{"100", "Atelier", "Diallo", "Atelier", "", "10", "12", "2024-03-01"},
		[]string{"101", "Atelier", "Diallo", "Atelier", "4", "", "2", "2024-03-02"},
		[]string{"102", "Mines", "Sow", "Terrain", "", "0", "3", "2024-03-02"},
	)
}

func orderStatusTable() *domain.RawTable {
	return table(domain.SourceOrderStatus,
		[]string{"OR (Numéro)", "Position", "Date Position"},
		[]string{"100", "EC", "2024-03-03"},
		[]string{"100", "Facturé", "2024-03-20"},
	)
}

func invoicesTable() *domain.RawTable {
	return table(domain.SourceInvoices,
		[]string{"N° Facture (Lignes)", "Date Facture (Lignes)", "Pointage dernière date (Segment)", "N° OR (Segment)", "Constructeur de l'équipement"},
		[]string{"F1", "2024-03-10", "2024-03-01", "100", "CATERPILLAR"},
		[]string{"F1", "2024-03-10", "2024-02-28", "100", "CATERPILLAR"},
		[]string{"F2", "2024-03-01", "2024-03-05", "101", "CATERPILLAR"},
		[]string{"F3", "2024-05-01", "2024-04-30", "101", "CATERPILLAR"},
	)
}

func allTables() map[domain.SourceKind]*domain.RawTable {
	return map[domain.SourceKind]*domain.RawTable{
		domain.SourceAttendance:  attendanceTable(),
		domain.SourceWorkOrders:  workOrdersTable(),
		domain.SourceOrderStatus: orderStatusTable(),
		domain.SourceInvoices:    invoicesTable(),
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cat, err := config.DefaultCatalog()
	require.NoError(t, err)
	registry, err := DefaultRegistry(cat, testLogger())
	require.NoError(t, err)
	return NewManager(registry, nil, nil, testLogger())
}
