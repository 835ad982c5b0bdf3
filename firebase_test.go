package main

import (
	"context"
	"testing"
)

func TestNewFirebaseAuth_Disabled(t *testing.T) {
	client, err := newFirebaseAuth(context.Background(), &Config{})
	if err != nil || client != nil {
		t.Errorf("expected (nil, nil) without a project id, got (%v, %v)", client, err)
	}
}

func TestNewFirebaseAuth_BadCredentials(t *testing.T) {
	cases := map[string]*Config{
		"no credentials": {FirebaseProjectID: "fittrack-dev"},
		"bad base64":     {FirebaseProjectID: "fittrack-dev", FirebaseServiceAccountJSONBase64: "%%%"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := newFirebaseAuth(context.Background(), cfg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
