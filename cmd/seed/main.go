package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/example/shopbot/pkg/app"
	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/models"
	"github.com/example/shopbot/pkg/repository"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// seed replaces the product catalog in MongoDB and drops the cached copy.
func main() {
	configPath := flag.String("config", os.Getenv("SHOPBOT_CONFIG"), "path to the YAML config file")
	file := flag.String("file", "", "JSON array of products to load instead of the built-in catalog")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	logger, err := cfg.Log.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	if err := run(cfg, *file, logger); err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}
}

func run(cfg *config.Config, file string, logger *zap.Logger) error {
	products := app.DefaultCatalog()
	if file != "" {
		var err error
		if products, err = readProducts(file); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer mongoRepo.Close(context.Background())

	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()

	catalog := repository.NewCachedCatalog(mongoRepo.Catalog(), redisRepo, logger)
	if err := catalog.ReplaceAll(ctx, products); err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}

	logger.Info("Products seeded", zap.Int("count", len(products)))
	return nil
}

// readProducts loads products from a JSON file. Products without an id get
// one derived from their name.
func readProducts(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = app.Slug(products[i].Name)
		}
	}
	return products, nil
}
