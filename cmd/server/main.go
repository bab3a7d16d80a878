package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomassist/internal/catalog"
	"roomassist/internal/config"
	"roomassist/internal/handler"
	"roomassist/internal/model"
	"roomassist/internal/retriever"
	"roomassist/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/philippgille/chromem-go"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Print version info
	log.Printf("Room Recommendation Assistant")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Load room catalog
	store, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("Failed to load room catalog: %v", err)
	}
	log.Printf("✅ Loaded %d rooms from %s", store.Len(), cfg.Catalog.Path)

	// Initialize OpenAI client
	if !cfg.OpenAI.Enabled {
		log.Fatal("OPENAI_API_KEY is required: classification, retrieval and composition all go through the LLM")
	}
	openaiClient := service.NewOpenAIClient(&cfg.OpenAI)
	log.Printf("✅ OpenAI client initialized")
	log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
	log.Printf("   - Chat model: %s", cfg.OpenAI.ChatModel)
	log.Printf("   - Embedding model: %s", cfg.OpenAI.EmbeddingModel)

	// Build the retriever index
	rebuild := makeRebuildFunc(cfg, openaiClient)

	ctx := context.Background()
	rooms := store.Rooms()
	index, err := rebuild(ctx, rooms)
	if err != nil {
		log.Fatalf("Failed to build retriever index: %v", err)
	}
	log.Printf("✅ Retriever index ready (backend: %s)", cfg.Retriever.Backend)

	// Initialize the recommendation engine
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	engine := service.NewEngine(openaiClient, rooms, index, cfg.Retriever.TopK, rng)

	log.Println("✅ Services initialized")

	// Initialize handlers
	chatHandler := handler.NewChatHandler(engine)
	roomsHandler := handler.NewRoomsHandler(engine, store, rebuild)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "room-recommendation-assistant",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/chat", chatHandler.Chat)

		apiV1.GET("/rooms", roomsHandler.List)
		apiV1.POST("/rooms", roomsHandler.Add)
		apiV1.POST("/rooms/auto", roomsHandler.AutoRecommend)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API: http://localhost:%d/api/v1", cfg.Server.Port)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}

// makeRebuildFunc returns the index builder for the configured backend.
// chromem constructs a fresh in-memory index per rebuild; pgvector connects
// once and reindexes the shared table.
func makeRebuildFunc(cfg *config.Config, client *service.OpenAIClient) handler.RebuildFunc {
	switch cfg.Retriever.Backend {
	case "pgvector":
		var pg *retriever.PostgresRetriever
		return func(ctx context.Context, rooms []model.Room) (service.Retriever, error) {
			if pg == nil {
				var err error
				pg, err = retriever.NewPostgresRetriever(
					cfg.GetPostgreSQLDSN(),
					cfg.PostgreSQL.MaxConnections,
					cfg.PostgreSQL.MaxIdleConnections,
					cfg.OpenAI.EmbeddingDimensions,
					client,
				)
				if err != nil {
					return nil, err
				}
			}
			if err := pg.Reindex(ctx, rooms); err != nil {
				return nil, err
			}
			return pg, nil
		}

	default:
		embed := chromem.EmbeddingFunc(client.EmbedText)
		return func(ctx context.Context, rooms []model.Room) (service.Retriever, error) {
			return retriever.NewChromemRetriever(ctx, cfg.Retriever.Collection, rooms, embed)
		}
	}
}
