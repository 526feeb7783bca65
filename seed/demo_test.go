package seed

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// recordingTx captures every row the demo seed writes inside its transaction
// and hands back sequential generated ids for the RETURNING id inserts.
type recordingTx struct {
	pgx.Tx
	nextID  int
	inserts []recordedInsert
}

type recordedInsert struct {
	sql  string
	args []interface{}
}

type generatedIDRow struct{ id int }

func (r generatedIDRow) Scan(dest ...interface{}) error {
	if len(dest) != 1 {
		return fmt.Errorf("expected a single id destination, got %d", len(dest))
	}
	p, ok := dest[0].(*int)
	if !ok {
		return fmt.Errorf("expected *int destination, got %T", dest[0])
	}
	*p = r.id
	return nil
}

func (tx *recordingTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	tx.nextID++
	tx.inserts = append(tx.inserts, recordedInsert{sql, args})
	return generatedIDRow{id: tx.nextID}
}

func (tx *recordingTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	tx.inserts = append(tx.inserts, recordedInsert{sql, args})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func demoProvIDs() map[string]int {
	ids := make(map[string]int, len(proveedoresDemo))
	for i, p := range proveedoresDemo {
		ids[p.ruc] = 900 + i
	}
	return ids
}

func TestSeedContratosMenoresUsesGeneratedIDs(t *testing.T) {
	tx := &recordingTx{}

	if err := seedContratosMenores(context.Background(), tx, 2026, 3, 7, demoProvIDs()); err != nil {
		t.Fatalf("seedContratosMenores: %v", err)
	}

	contratos, hitos := 0, 0
	currentID := 0
	for _, ins := range tx.inserts {
		switch {
		case strings.Contains(ins.sql, "INSERT INTO contrato_menor_proceso"):
			hitos++
			got, ok := ins.args[0].(int)
			if !ok || got != currentID {
				t.Fatalf("milestone written with contract id %v, want %d", ins.args[0], currentID)
			}
		case strings.Contains(ins.sql, "INSERT INTO contrato_menor"):
			contratos++
			// QueryRow handed out sequential ids, so the contract just
			// inserted scanned back contratos as its id.
			currentID = contratos
		}
	}

	if contratos != len(contratosDemo) {
		t.Errorf("inserted %d contracts, want %d", contratos, len(contratosDemo))
	}
	if want := len(contratosDemo) * len(hitosContratoMenor); hitos != want {
		t.Errorf("inserted %d milestones, want %d", hitos, want)
	}
}

func TestSeedAdquisicionesUsesGeneratedIDs(t *testing.T) {
	tx := &recordingTx{}

	if err := seedAdquisiciones(context.Background(), tx, 2026, 3, 7, demoProvIDs()); err != nil {
		t.Fatalf("seedAdquisiciones: %v", err)
	}

	adqs, detalles, procesos := 0, 0, 0
	currentID := 0
	for _, ins := range tx.inserts {
		switch {
		case strings.Contains(ins.sql, "INSERT INTO adquisicion_proceso"):
			procesos++
			got, ok := ins.args[0].(int)
			if !ok || got != currentID {
				t.Fatalf("milestone written with acquisition id %v, want %d", ins.args[0], currentID)
			}
		case strings.Contains(ins.sql, "INSERT INTO adquisicion_detalle"):
			detalles++
			got, ok := ins.args[0].(int)
			if !ok || got != currentID {
				t.Fatalf("detail line written with acquisition id %v, want %d", ins.args[0], currentID)
			}
		case strings.Contains(ins.sql, "INSERT INTO adquisicion"):
			adqs++
			currentID = adqs
		}
	}

	if adqs != len(adquisicionesDemo) {
		t.Errorf("inserted %d acquisitions, want %d", adqs, len(adquisicionesDemo))
	}
	if detalles != adqs {
		t.Errorf("inserted %d detail lines, want one per acquisition (%d)", detalles, adqs)
	}
	if want := len(adquisicionesDemo) * len(hitosAdquisicion); procesos != want {
		t.Errorf("inserted %d milestones, want %d", procesos, want)
	}
}
