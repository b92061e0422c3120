package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	// FirebaseApp is the Firebase app instance
	FirebaseApp *firebase.App
	// MessagingClient is the Firebase Cloud Messaging client
	MessagingClient *messaging.Client
)

// InitFirebase initializes Firebase Admin SDK
func InitFirebase() error {
	ctx := context.Background()

	// Check if Firebase is configured
	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	if serviceAccountPath == "" {
		log.Println("Warning: FIREBASE_SERVICE_ACCOUNT_PATH not set. Push notifications will be disabled.")
		return nil
	}

	// Initialize Firebase app
	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing firebase app: %v", err)
	}

	// Initialize messaging client
	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting messaging client: %v", err)
	}

	FirebaseApp = app
	MessagingClient = client

	log.Println("Firebase Cloud Messaging initialized successfully")
	return nil
}

// sendPush delivers a push notification to a single device token. No-op when
// FCM is not configured or the user has no token.
func sendPush(ctx context.Context, token, title, body string, data map[string]string) error {
	if MessagingClient == nil || token == "" {
		return nil
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "tripshare_default",
			},
		},
	}

	_, err := MessagingClient.Send(ctx, message)
	return err
}

// SendTripCancelledNotification tells a request holder the trip was cancelled.
func SendTripCancelledNotification(ctx context.Context, token string, tripID uint, reason string) error {
	return sendPush(ctx, token, "Trip cancelled", reason, map[string]string{
		"type":   EventTripCancelled,
		"tripId": strconv.FormatUint(uint64(tripID), 10),
	})
}

// SendRequestDecidedNotification tells a passenger their seat request was decided.
func SendRequestDecidedNotification(ctx context.Context, token string, requestID uint, approved bool) error {
	body := "Your seat request was rejected."
	if approved {
		body = "Your seat request was approved!"
	}
	return sendPush(ctx, token, "Seat request update", body, map[string]string{
		"type":      EventRideRequestDecided,
		"requestId": strconv.FormatUint(uint64(requestID), 10),
	})
}
