// Command reconcile recomputes a group's balances from its persisted
// transaction effects and reports any drift from the running balances.
//
// The server applies incremental deltas per mutation; this tool is the
// offline repair path for when something has gone wrong (a crashed
// migration, manual database surgery). It is never part of normal operation.
//
// Usage:
//
//	reconcile -db ./data/splitpot.db -group <group-id> [-repair]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/storage/sqlite"
	"github.com/splitpot/splitpot/pkg/logging"
)

func main() {
	dbPath := flag.String("db", "./data/splitpot.db", "path to the SQLite database")
	groupID := flag.String("group", "", "group ID to reconcile")
	repair := flag.Bool("repair", false, "overwrite running balances with recomputed values")
	flag.Parse()

	logging.Setup()

	if *groupID == "" {
		fmt.Fprintln(os.Stderr, "reconcile: -group is required")
		flag.Usage()
		os.Exit(2)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	drifts, err := ledger.Reconcile(context.Background(), store, *groupID, *repair)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
		os.Exit(1)
	}

	if len(drifts) == 0 {
		fmt.Printf("group %s: balances consistent with transaction effects\n", *groupID)
		return
	}

	for _, d := range drifts {
		fmt.Printf("member %s: stored %s, computed %s\n", d.MemberID, d.Stored, d.Computed)
	}
	if *repair {
		fmt.Printf("group %s: %d balance(s) repaired\n", *groupID, len(drifts))
	} else {
		fmt.Printf("group %s: %d drift(s) found (run with -repair to fix)\n", *groupID, len(drifts))
	}
}
