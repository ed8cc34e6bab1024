// stratum-update applies an update expression to a document and prints the
// mutated document together with the replay-log entry.
//
// Usage:
//
//	stratum-update -doc '{"scores":[1,2,3,4]}' -update '{"$pull":{"scores":3}}'
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/stratumdb/stratum/internal/collation"
	"github.com/stratumdb/stratum/internal/config"
	"github.com/stratumdb/stratum/internal/logging"
	"github.com/stratumdb/stratum/internal/update"
)

func main() {
	var (
		configPath = flag.String("config", "config.yml", "configuration file")
		docJSON    = flag.String("doc", "", "document to update (extended JSON)")
		updateJSON = flag.String("update", "", "update expression (extended JSON)")
		logEntry   = flag.Bool("oplog", true, "emit the replay-log entry")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(1)
	}

	if *docJSON == "" || *updateJSON == "" {
		fmt.Fprintln(os.Stderr, "both -doc and -update are required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, *docJSON, *updateJSON, *logEntry); err != nil {
		slog.Error("update failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, docJSON, updateJSON string, logEntry bool) error {
	coll, err := collation.ByName(cfg.Engine.Collation.Locale, cfg.Engine.Collation.CaseInsensitive)
	if err != nil {
		return err
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(docJSON), false, &doc); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	var updateDoc bson.D
	if err := bson.UnmarshalExtJSON([]byte(updateJSON), false, &updateDoc); err != nil {
		return fmt.Errorf("invalid update expression: %w", err)
	}

	driver := update.NewDriver(coll)
	parsed, err := driver.Parse(updateDoc)
	if err != nil {
		return err
	}

	indexData := update.NewIndexData()
	for _, path := range cfg.Engine.IndexedPaths {
		indexData.AddPath(path)
	}

	result, err := driver.Apply(parsed, doc, update.ApplyOptions{
		IndexData:      indexData,
		ImmutablePaths: update.NewFieldRefSet(cfg.Engine.ImmutablePaths...),
		LogEntry:       logEntry,
	})
	if err != nil {
		return err
	}

	out, err := bson.MarshalExtJSON(result.Document, false, false)
	if err != nil {
		return err
	}
	fmt.Printf("document: %s\n", out)
	fmt.Printf("noop: %v\nindexes_affected: %v\n", result.Noop, result.IndexesAffected)

	if result.Oplog != nil {
		entry, err := bson.MarshalExtJSON(result.Oplog.Op, false, false)
		if err != nil {
			return err
		}
		fmt.Printf("oplog %s @ %s: %s\n", result.Oplog.ID, result.Oplog.Timestamp.Format("2006-01-02T15:04:05.000Z"), entry)
	}
	return nil
}
