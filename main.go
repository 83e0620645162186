// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
)

func main() {
	fmt.Println("moneyplan-sync - Offline-First Sync Engine")
	fmt.Println("==========================================")
	fmt.Println()
	fmt.Println("moneyplan-sync keeps a local SQLite finance ledger converged with a")
	fmt.Println("remote backend: writes land locally first, marked unsynced, and a")
	fmt.Println("serialized coordinator reconciles them when connectivity allows.")
	fmt.Println()

	fmt.Println("Packages:")
	fmt.Println()
	fmt.Println("  plansync    - coordinator, triggers, events, ports (storage/backend agnostic)")
	fmt.Println("  plansqlite  - durable offline store on SQLite (WAL, unsynced tracking)")
	fmt.Println("  planremote  - HTTP backend gateway, network probe, JWT session provider")
	fmt.Println("  planserver  - reference Postgres backend with idempotent insert replay")
	fmt.Println()
	fmt.Println("Daemon:")
	fmt.Println()
	fmt.Println("  cmd/plansyncd - background sync daemon")
	fmt.Println("  Run: cd cmd/plansyncd && go run .")
	fmt.Println()
}
