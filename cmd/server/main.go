package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"refractor/internal/config"
	"refractor/internal/handler"
	"refractor/internal/relay"
	"refractor/internal/store"
	"refractor/internal/thumbs"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  .env file not found, using default values: %v", err)
	}

	// 環境変数を読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	st := store.New(cfg.StaticDir)
	rl := relay.New(cfg.AllowedOrigins)

	// サムネイルストレージを初期化（失敗しても起動は続ける）
	var lister handler.ThumbnailLister
	tl, err := thumbs.New(context.Background(), cfg.GCSBucket)
	if err != nil {
		log.Printf("⚠️  Google Cloud Storage unavailable, thumbnails disabled: %v", err)
	} else {
		defer tl.Close()
		lister = tl
	}

	// ハンドラー初期化
	h := handler.New(cfg, st, rl, lister)
	router := h.SetupRouter()

	// CORS対応
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS", "PUT"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		MaxAge:           300,
		AllowCredentials: true,
	})

	httpHandler := c.Handler(router)

	fmt.Println("========================================")
	fmt.Println("  Refract0r Relay Server")
	fmt.Println("========================================")
	fmt.Printf("  Environment: %s\n", cfg.Env)
	fmt.Printf("  Server: http://localhost:%s\n", cfg.ServerPort)
	fmt.Printf("  WebSocket: ws://localhost:%s%s\n", cfg.ServerPort, cfg.WSPath)
	fmt.Printf("  Static dir: %s\n", cfg.StaticDir)
	fmt.Printf("  Allowed Origins: %v\n", cfg.AllowedOrigins)
	fmt.Println("========================================")
	log.Println("🚀 Server started successfully")
	log.Fatal(http.ListenAndServe(":"+cfg.ServerPort, httpHandler))
}
