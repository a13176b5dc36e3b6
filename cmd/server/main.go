package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ironveil/labyrinth/internal/config"
	"github.com/ironveil/labyrinth/internal/handlers/api"
	"github.com/ironveil/labyrinth/internal/repositories/floors"
	"github.com/ironveil/labyrinth/internal/repositories/positions"
	"github.com/ironveil/labyrinth/internal/repositories/rewards"
	"github.com/ironveil/labyrinth/internal/services"
	"github.com/ironveil/labyrinth/internal/services/generator"
	"github.com/ironveil/labyrinth/internal/ws"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	providerConfig := &services.ProviderConfig{
		Config: cfg,
	}

	// Keep Redis client for cleanup
	var redisClient *redis.Client

	if os.Getenv("REDIS_ADDR") != "" {
		log.Printf("Connecting to Redis at: %s", cfg.Redis.Addr)

		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		// Test connection
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
			cancel()
			log.Printf("Failed to connect to Redis: %v", pingErr)
			log.Println("Falling back to in-memory repositories")
			redisClient = nil
		} else {
			cancel()
			log.Println("Successfully connected to Redis")

			providerConfig.FloorRepository = floors.NewRedisRepository(&floors.RedisRepoConfig{Client: redisClient})
			providerConfig.PositionRepository = positions.NewRedisRepository(redisClient)
			providerConfig.RewardRepository = rewards.NewRedisRepository(&rewards.RedisRepoConfig{Client: redisClient})

			log.Println("Using Redis for persistence")
		}
	} else {
		log.Println("No REDIS_ADDR found, using in-memory repositories")
	}

	serviceProvider := services.NewProvider(providerConfig)

	if err := seedFloors(context.Background(), serviceProvider); err != nil {
		log.Fatalf("Failed to seed floors: %v", err)
	}

	hub := ws.NewHub()
	handler := api.NewHandler(serviceProvider, hub)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Printf("Listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Printf("Server error: %v", err)
	}

	// Clean up Redis connection if we have one
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		} else {
			log.Println("Closed Redis connection")
		}
	}
}

// seedFloors generates the starting floors on first boot. Floors already in
// storage are left untouched so exploration state survives restarts.
func seedFloors(ctx context.Context, provider *services.Provider) error {
	existing, err := provider.FloorRepository.ListFloors(ctx)
	if err != nil {
		return err
	}
	present := make(map[int]bool, len(existing))
	for _, n := range existing {
		present[n] = true
	}

	pools := map[int][]string{
		1: {"giant rat", "goblin"},
		2: {"goblin", "skeleton", "orc"},
		3: {"skeleton", "orc", "ogre"},
	}

	for floorNum := 1; floorNum <= 3; floorNum++ {
		if present[floorNum] {
			continue
		}
		input := &generator.GenerateInput{
			FloorNumber:     floorNum,
			NodeCount:       20 + floorNum*4,
			BossCount:       1,
			SafeZoneCount:   2,
			CraftingCount:   1,
			StairsCount:     1,
			GuildHallCount:  1,
			StartPointCount: 2,
			Layout:          generator.LayoutMaze,
			Density:         0.3,
			MonsterPool:     pools[floorNum],
			Wave: &generator.WaveInjection{
				Fraction:        0.25,
				WaveCount:       2,
				MonstersPerWave: 2,
			},
			Seed: int64(floorNum) * 7919,
		}
		if floorNum%2 == 0 {
			input.Layout = generator.LayoutOpen
			input.Density = 0.6
		}
		if _, err := provider.GeneratorService.GenerateFloor(ctx, input); err != nil {
			return err
		}
		log.Printf("Generated floor %d (%d nodes)", floorNum, input.NodeCount)
	}
	return nil
}
