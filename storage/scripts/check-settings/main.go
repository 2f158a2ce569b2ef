package main

import (
	"context"
	"fmt"
	"log"

	"github.com/loganlanou/shipstation-rates/storage"
)

func main() {
	store, err := storage.New("./data/database.db")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()

	options, err := store.Queries.ListPluginOptions(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Found %d plugin options:\n", len(options))
	for _, o := range options {
		fmt.Printf("- %s = %s\n", o.Key, o.Value)
	}

	instances, err := store.Queries.ListMethodInstances(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if len(instances) == 0 {
		fmt.Println("No method instances found in database")
		return
	}

	fmt.Printf("\nFound %d method instances:\n", len(instances))
	for _, instance := range instances {
		settings, err := store.MethodSettings(ctx, int(instance.ID))
		if err != nil {
			fmt.Printf("- %d %s: unreadable settings: %v\n", instance.ID, instance.Title, err)
			continue
		}
		packing, _ := settings.Lookup("packing")
		fmt.Printf("- %d %s (packing: %v)\n", instance.ID, instance.Title, packing)
	}
}
