package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// newFirebaseAuth builds the Firebase auth client from config. It returns
// (nil, nil) when no project is configured so the server runs with opaque
// tokens only.
func newFirebaseAuth(ctx context.Context, cfg *Config) (*auth.Client, error) {
	if cfg.FirebaseProjectID == "" {
		return nil, nil
	}

	var opt option.ClientOption
	switch {
	case cfg.GoogleApplicationCredentials != "":
		opt = option.WithCredentialsFile(cfg.GoogleApplicationCredentials)
	case cfg.FirebaseServiceAccountJSONBase64 != "":
		jsonKey, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, errors.New("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is not valid base64")
		}
		opt = option.WithCredentialsJSON(jsonKey)
	default:
		return nil, errors.New("GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 must be set with FIREBASE_PROJECT_ID")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return client, nil
}
