package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"cinreq/internal/config"
	"cinreq/internal/repository/postgres"
	"cinreq/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed fixtures")
	fixturesPath := flag.String("fixtures", "cmd/seed/fixtures.yaml", "Path to the YAML fixtures file")
	seedUserID := flag.String("user", "00000000-0000-0000-0000-000000000001", "User ID to attribute seeded data to")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: Cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	fixtures, err := loadFixtures(*fixturesPath)
	if err != nil {
		log.Fatalf("Failed to load fixtures from %s: %v", *fixturesPath, err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	versionRepo := postgres.NewVersionRepository(repoConfig)
	sectionRepo := postgres.NewSectionRepository(repoConfig)
	bindingRepo := postgres.NewBindingRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	docService := service.NewDocumentService(docRepo, versionRepo, txManager, logger)
	sectionService := service.NewSectionService(sectionRepo, bindingRepo, docRepo, txManager, logger)
	bindingService := service.NewBindingService(bindingRepo, sectionRepo, docRepo, txManager, logger)

	seeder := &seeder{
		docService:     docService,
		sectionService: sectionService,
		bindingService: bindingService,
		userID:         *seedUserID,
	}

	if err := seeder.apply(ctx, fixtures); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}

// runSchema creates tables and indexes if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	for _, stmt := range schemaStatements(tables) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `sections_document ON ` + tables.Sections + `(document_id, parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `bindings_section ON ` + tables.SectionBindings + `(section_id)`,
		// DB-level backstop for the single-active invariant within a section;
		// the document-wide guarantee is enforced transactionally.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `bindings_active ON ` + tables.SectionBindings + `(section_id) WHERE is_active`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `versions_document ON ` + tables.DocumentVersions + `(document_id, version_number)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `messages_session ON ` + tables.Messages + `(session_id, created_at)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// schemaStatements returns the CREATE TABLE statements for every table.
func schemaStatements(tables *postgres.TableNames) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			document_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			current_version INTEGER NOT NULL DEFAULT 1,
			content JSONB,
			derived_from_id UUID REFERENCES ` + tables.Documents + `(id) ON DELETE SET NULL,
			created_by_id UUID NOT NULL,
			last_edited_by_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.DocumentVersions + ` (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			version_number INTEGER NOT NULL,
			content JSONB,
			change_summary TEXT,
			created_by_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(document_id, version_number)
		)`,

		// parent_id SET NULL: deleting a parent promotes children to root
		`CREATE TABLE IF NOT EXISTS ` + tables.Sections + ` (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			section_number TEXT NOT NULL,
			title TEXT NOT NULL,
			parent_id UUID REFERENCES ` + tables.Sections + `(id) ON DELETE SET NULL,
			sort_order INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'empty',
			content_preview TEXT,
			ai_generated BOOLEAN NOT NULL DEFAULT FALSE,
			ai_confidence DOUBLE PRECISION,
			open_questions JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Sessions + ` (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL DEFAULT 'draft',
			owner_id UUID NOT NULL,
			system_prompt TEXT,
			context_summary TEXT,
			token_usage INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Messages + ` (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES ` + tables.Sessions + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			message_type TEXT NOT NULL,
			content TEXT NOT NULL,
			extra_data JSONB,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.SectionBindings + ` (
			id UUID PRIMARY KEY,
			section_id UUID NOT NULL REFERENCES ` + tables.Sections + `(id) ON DELETE CASCADE,
			message_id UUID REFERENCES ` + tables.Messages + `(id) ON DELETE SET NULL,
			binding_type TEXT NOT NULL,
			created_by_id UUID,
			is_ai_generated BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			note TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deactivated_at TIMESTAMPTZ
		)`,
	}
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.SectionBindings,
		tables.Messages,
		tables.Sessions,
		tables.Sections,
		tables.DocumentVersions,
		tables.Documents,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  dropped %s", table)
	}

	return nil
}
