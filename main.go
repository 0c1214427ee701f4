package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"eventmatch_server/controllers"
	"eventmatch_server/routes"
	"eventmatch_server/services"
	"eventmatch_server/socket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Initialize Services
	watchRegistry := services.NewWatchRegistry()
	interestService := &services.InterestService{Dynamo: dynamoService, Watch: watchRegistry}
	userProfileService := &services.UserProfileService{Dynamo: dynamoService}
	detectionService := &services.DetectionService{Dynamo: dynamoService, Interests: interestService, Profiles: userProfileService}
	matchService := &services.MatchService{Dynamo: dynamoService}
	chatService := &services.ChatService{Dynamo: dynamoService}
	matchQueryService := &services.MatchQueryService{Dynamo: dynamoService, Profiles: userProfileService}

	// Socket.IO server: clients join their user-handle room and receive
	// interestChanged/matchUpdated/newMessage pushes.
	socketServer := socket.NewSocketServer()
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Printf("❌ Socket server stopped: %v", err)
		}
	}()
	defer socketServer.Close()
	notifier := &socket.Notifier{Server: socketServer}

	// Tail the UserInterests stream when configured, so watchers and sockets
	// see writes from other processes too.
	if streamArn := os.Getenv("INTEREST_STREAM_ARN"); streamArn != "" {
		streamService := &services.InterestStreamService{
			Streams:   services.NewStreamsClient(),
			StreamArn: streamArn,
			Registry:  watchRegistry,
			Push: func(userID, eventID string, active bool) {
				notifier.Push(userID, "interestChanged", map[string]interface{}{
					"eventId": eventID,
					"active":  active,
				})
			},
		}
		go streamService.Run(context.Background())
		log.Printf("Tailing interest stream %s", streamArn)
	}

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()
	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.Handle("/socket.io/", socketServer)

	// Register routes
	routes.RegisterUserProfileRoutes(r, userProfileService)
	routes.RegisterInterestRoutes(r, interestService, detectionService, matchService, matchQueryService, notifier)
	routes.RegisterMatchRoutes(r, matchService, matchQueryService, chatService, notifier)
	routes.RegisterChatRoutes(r, chatService, notifier)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", controllers.CallerHeader},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
