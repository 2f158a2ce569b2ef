package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

func main() {
	db, err := sql.Open("sqlite", "./data/database.db")
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	fmt.Println("=== Goose Migration Status ===")
	rows, err := db.Query("SELECT version_id, is_applied, tstamp FROM goose_db_version ORDER BY id")
	if err != nil {
		fmt.Printf("Error querying goose_db_version: %v\n", err)
		fmt.Println("Table might not exist yet")
	} else {
		defer rows.Close()
		for rows.Next() {
			var versionID int64
			var isApplied bool
			var tstamp string
			if err := rows.Scan(&versionID, &isApplied, &tstamp); err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Version: %d, Applied: %v, Timestamp: %s\n", versionID, isApplied, tstamp)
		}
	}

	for _, table := range []string{"plugin_options", "platform_options", "method_instances", "products"} {
		fmt.Printf("\n=== %s ===\n", table)
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			fmt.Printf("Error querying %s: %v\n", table, err)
			continue
		}
		fmt.Printf("Rows: %d\n", count)

		cols, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
		if err != nil {
			fmt.Printf("Error reading schema: %v\n", err)
			continue
		}
		for cols.Next() {
			var cid int
			var name string
			var typ string
			var notnull int
			var dfltValue sql.NullString
			var pk int
			if err := cols.Scan(&cid, &name, &typ, &notnull, &dfltValue, &pk); err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Column: %s (%s)\n", name, typ)
		}
		cols.Close()
	}
}
