// Command tokengen seeds a user (and optional workspace memberships) into
// the store and prints a signed connection token. Development helper: real
// tokens come from the REST layer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"collab-live/auth"
	"collab-live/domain"
	"collab-live/internal"
	"collab-live/repositories"
)

func main() {
	userID := flag.String("user", "", "User id to seed and sign")
	username := flag.String("username", "", "Username (defaults to the user id)")
	displayName := flag.String("display-name", "", "Display name (defaults to the username)")
	role := flag.String("role", "user", "Role claim")
	workspaceIDs := flag.String("workspaces", "", "Comma-separated workspace ids to join as member")
	flag.Parse()

	if *userID == "" {
		log.Fatal("Missing -user")
	}
	if *username == "" {
		*username = *userID
	}
	if *displayName == "" {
		*displayName = *username
	}

	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	users := repositories.NewUserRepository(db)
	if err := users.SaveUser(ctx, *userID, domain.UserDisplay{
		Username:    *username,
		DisplayName: *displayName,
	}); err != nil {
		log.Fatalf("Failed to seed user: %v", err)
	}

	workspaces := repositories.NewWorkspaceRepository(db)
	for _, workspaceID := range strings.Split(*workspaceIDs, ",") {
		workspaceID = strings.TrimSpace(workspaceID)
		if workspaceID == "" {
			continue
		}
		if err := workspaces.AddMember(ctx, workspaceID, *userID); err != nil {
			log.Fatalf("Failed to add membership %q: %v", workspaceID, err)
		}
	}

	tokens := auth.NewTokenService(config.JWTSecret, config.JWTIssuer, config.AuthTokenDuration)
	token, err := tokens.Generate(*userID, *role)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
