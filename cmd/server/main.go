package main

import (
	"context"
	"net/http"
	"os"

	"serieer/internal/container"
	"serieer/internal/handlers"
	"serieer/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	logger.Init()
	log := logger.Get()

	err := godotenv.Load(".env.local")
	if err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	c, err := container.New(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer c.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/api/toggle", handlers.ToggleHandler(c))
	http.HandleFunc("/api/collection", handlers.CollectionHandler(c))
	http.HandleFunc("/api/achievements", handlers.AchievementsHandler(c))
	http.HandleFunc("/api/posters", handlers.PostersHandler(c))
	http.HandleFunc("/api/posters/select", handlers.PosterSelectHandler(c))
	http.HandleFunc("/api/posters/unlock", handlers.PosterUnlockHandler(c))
	http.HandleFunc("/api/reviews", handlers.ReviewsHandler(c))
	http.HandleFunc("/api/reviews/delete", handlers.ReviewDeleteHandler(c))
	http.HandleFunc("/api/reviews/like", handlers.ReviewLikeHandler(c))
	http.HandleFunc("/api/feed", handlers.PersonalFeedHandler(c))
	http.HandleFunc("/api/feed/social", handlers.SocialFeedHandler(c))
	http.HandleFunc("/api/feed/unread", handlers.UnreadHandler(c))
	http.HandleFunc("/api/feed/viewed", handlers.MarkViewedHandler(c))
	http.HandleFunc("/api/follow", handlers.FollowHandler(c))
	http.HandleFunc("/api/unfollow", handlers.UnfollowHandler(c))
	http.HandleFunc("/api/following", handlers.FollowingHandler(c))
	http.HandleFunc("/api/followers", handlers.FollowersHandler(c))
	http.HandleFunc("/api/notifications", handlers.NotificationsHandler(c))

	log.Infof("Server starting on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
