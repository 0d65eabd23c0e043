// Seed script for creating a demo practice with a location, departments, a
// customer and a patient.
// Run with: go run ./scripts/seed.go
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/Harshitk-cp/vetpms/internal/api/middleware"
	"github.com/Harshitk-cp/vetpms/internal/archetype"
	"github.com/Harshitk-cp/vetpms/internal/client"
	"github.com/Harshitk-cp/vetpms/internal/config"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/Harshitk-cp/vetpms/internal/resolver"
	"github.com/Harshitk-cp/vetpms/internal/service"
	"github.com/Harshitk-cp/vetpms/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StorageBackend != config.StorageBackendPostgres {
		log.Fatalf("Seeding needs STORAGE_BACKEND=%s", config.StorageBackendPostgres)
	}

	ctx := context.Background()
	logger := zap.NewNop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool, cfg.MigrationsPath, logger); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}
	fmt.Println("Connected to database")

	archetypes, err := archetype.Load(cfg.ArchetypesPath)
	if err != nil {
		log.Fatalf("Failed to load archetypes: %v", err)
	}

	objects := store.NewObjectStore(pool)
	refs := resolver.NewRegistry()
	refs.Register("*", objects)
	objectSvc := service.NewObjectService(objects, archetypes, refs, logger)
	practiceSvc := service.NewPracticeService(store.NewPracticeStore(pool), objectSvc, logger)

	apiKey := generateAPIKey()
	practice, err := practiceSvc.Create(ctx, "Demo Veterinary Clinic", middleware.HashAPIKey(apiKey), map[string]any{
		"currency": "AUD",
	})
	if err != nil {
		log.Fatalf("Failed to create practice: %v", err)
	}
	practiceID := practice.Practice.ID
	fmt.Printf("Created practice: %s\n", practiceID)
	fmt.Printf("API Key: %s\n", apiKey)
	fmt.Println("(Save this API key - it cannot be retrieved later)")

	location := mustCreate(ctx, objectSvc, practiceID, domain.ArchetypeLocation, map[string]any{
		"name":     "Main Street",
		"mailFrom": "reception@demo-clinic.example",
	})
	link(ctx, objectSvc, practiceID, practice.Object, "locations", domain.ArchetypePracticeLocRel, location)

	for _, d := range []struct{ name, code string }{
		{"Surgery", "SURG"},
		{"Consulting", "CONS"},
		{"Grooming", "GROOM"},
	} {
		dept := mustCreate(ctx, objectSvc, practiceID, domain.ArchetypeDepartment, map[string]any{
			"name": d.name,
			"code": d.code,
		})
		link(ctx, objectSvc, practiceID, location, "departments", domain.ArchetypeLocationDeptRel, dept)
	}

	customer := mustCreate(ctx, objectSvc, practiceID, domain.ArchetypeCustomer, map[string]any{
		"name":      "Smith, Jane",
		"title":     "MS",
		"firstName": "Jane",
		"lastName":  "Smith",
	})
	patient := mustCreate(ctx, objectSvc, practiceID, domain.ArchetypePatient, map[string]any{
		"name":      "Rex",
		"species":   "CANINE",
		"breed":     "Kelpie",
		"sex":       "MALE",
		"microchip": "956000012345678",
		"weight":    22.5,
	})
	link(ctx, objectSvc, practiceID, customer, "patients", domain.ArchetypePatientOwner, patient)

	// Confirm through the API when a server is already running.
	departments, err := client.NewDepartmentsClient(cfg.DepartmentsURL, apiKey).List(ctx, nil)
	if err != nil {
		fmt.Printf("\nSkipping API check (%v)\n", err)
	} else {
		fmt.Printf("\nAPI at %s lists %d departments\n", cfg.DepartmentsURL, len(departments))
	}

	fmt.Println("\nSeed complete!")
	fmt.Println("\nTry these commands:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:%d/v1/departments\n", apiKey, cfg.ServerPort)
	fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:%d/v1/objects/%s/%s/targets/patients\n",
		apiKey, cfg.ServerPort, domain.ArchetypeCustomer, customer.ID)
}

func mustCreate(ctx context.Context, svc *service.ObjectService, practiceID uuid.UUID, shortName string, nodes map[string]any) *domain.Object {
	o, err := svc.Create(ctx, practiceID, service.CreateObjectInput{Archetype: shortName, Nodes: nodes})
	if err != nil {
		log.Fatalf("Failed to create %s: %v", shortName, err)
	}
	fmt.Printf("Created %s: %s (%s)\n", shortName, o.Name, o.ID)
	return o
}

func link(ctx context.Context, svc *service.ObjectService, practiceID uuid.UUID, source *domain.Object, node, rel string, target *domain.Object) {
	_, err := svc.AddRelationship(ctx, practiceID, source.Archetype.ShortName(), source.ID, service.AddRelationshipInput{
		Node:         node,
		Relationship: rel,
		Target:       target.Reference().String(),
	})
	if err != nil {
		log.Fatalf("Failed to link %s -> %s: %v", source.Name, target.Name, err)
	}
}

func generateAPIKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Failed to generate API key: %v", err)
	}
	return "vp_" + hex.EncodeToString(b)
}
