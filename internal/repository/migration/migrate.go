package migration

import (
	"fmt"
	"log"

	"ai-assistant-be/internal/model"

	"gorm.io/gorm"
)

var setupSQL = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	`CREATE EXTENSION IF NOT EXISTS vector;`,
}

// Run creates the assistant tables and one chunk table per collection store.
func Run(db *gorm.DB, stores []string) error {
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("[WARN] setup SQL failed: %v. Continuing...", err)
		}
	}

	models := []interface{}{
		&model.ChatThread{},
		&model.ChatMessage{},
		&model.AgentConfig{},
		&model.UserSettings{},
		&model.DocumentChunk{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	for _, store := range stores {
		if store == model.DefaultStore {
			continue
		}
		if !model.IsValidStoreName(store) {
			return fmt.Errorf("invalid store name %q", store)
		}
		if err := db.Table(store).AutoMigrate(&model.DocumentChunk{}); err != nil {
			return fmt.Errorf("automigrate store %s: %w", store, err)
		}
	}

	for _, store := range append([]string{model.DefaultStore}, stores...) {
		if !model.IsValidStoreName(store) {
			continue
		}
		stmt := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%s_embedding_hnsw ON %s USING hnsw (embedding_value vector_cosine_ops);`,
			store, store,
		)
		if err := db.Exec(stmt).Error; err != nil {
			log.Printf("[WARN] vector index on %s failed: %v", store, err)
		}
	}
	return nil
}
