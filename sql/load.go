package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed sagas.sql
var sagasSQL string

//go:embed entities.sql
var entitiesSQL string

//go:embed relationships.sql
var relationshipsSQL string

//go:embed fragments.sql
var fragmentsSQL string

//go:embed timeline.sql
var timelineSQL string

//go:embed metrics.sql
var metricsSQL string

// Function lists for verification
var SagasFunctions = []string{
	"init_sagas",
	"insert_saga",
	"select_saga",
	"select_saga_by_slug",
	"delete_saga",
}

var EntitiesFunctions = []string{
	"init_entities",
	"insert_entity",
	"select_entity",
	"entity_exists",
	"select_entities_by_saga",
	"update_entity_embedding_hash",
	"delete_entity",
}

var RelationshipsFunctions = []string{
	"init_relationships",
	"insert_relationship",
	"select_relationship",
	"select_relationships_by_source",
	"select_relationships_by_target",
	"delete_relationship",
}

var FragmentsFunctions = []string{
	"init_fragments",
	"insert_fragment",
	"select_fragment",
	"select_fragments_by_entity",
	"select_fragments_with_embedding",
	"select_fragments_without_embedding",
	"update_fragment_embedding",
	"delete_fragment",
}

var TimelineFunctions = []string{
	"init_timeline_events",
	"insert_timeline_event",
	"select_timeline_events_by_entity",
	"delete_timeline_event",
}

var MetricsFunctions = []string{
	"init_quality_metrics",
	"upsert_quality_metrics",
	"select_quality_metrics",
	"select_entities_needing_verification",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadSagasSql loads saga-related SQL functions
func LoadSagasSql(db *sql.DB, force bool) error {
	return loadSql(db, force, sagasSQL, SagasFunctions, "sagas")
}

// LoadEntitiesSql loads entity-related SQL functions
func LoadEntitiesSql(db *sql.DB, force bool) error {
	return loadSql(db, force, entitiesSQL, EntitiesFunctions, "entities")
}

// LoadRelationshipsSql loads relationship-related SQL functions
func LoadRelationshipsSql(db *sql.DB, force bool) error {
	return loadSql(db, force, relationshipsSQL, RelationshipsFunctions, "relationships")
}

// LoadFragmentsSql loads fragment-related SQL functions
func LoadFragmentsSql(db *sql.DB, force bool) error {
	return loadSql(db, force, fragmentsSQL, FragmentsFunctions, "fragments")
}

// LoadTimelineSql loads timeline-related SQL functions
func LoadTimelineSql(db *sql.DB, force bool) error {
	return loadSql(db, force, timelineSQL, TimelineFunctions, "timeline")
}

// LoadMetricsSql loads quality-metrics-related SQL functions
func LoadMetricsSql(db *sql.DB, force bool) error {
	return loadSql(db, force, metricsSQL, MetricsFunctions, "metrics")
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadSagasSql(db, force); err != nil {
		return err
	}

	if err := LoadEntitiesSql(db, force); err != nil {
		return err
	}

	if err := LoadRelationshipsSql(db, force); err != nil {
		return err
	}

	if err := LoadFragmentsSql(db, force); err != nil {
		return err
	}

	if err := LoadTimelineSql(db, force); err != nil {
		return err
	}

	if err := LoadMetricsSql(db, force); err != nil {
		return err
	}

	return nil
}

// loadSql loads one group of SQL functions and verifies they all exist afterwards
func loadSql(db *sql.DB, force bool, sqlText string, sqlFunctions []string, name string) error {
	if !force {
		exist, err := checkFunctions(db, sqlFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(sqlText)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, sqlFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
