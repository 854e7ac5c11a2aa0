// Command gmail-auth runs the one-time OAuth consent for the mailbox the API syncs
// and saves the token where the API expects it.
package main

import (
	"context"
	"log"
	"os"

	"github.com/justsurfingit/pipeline-crm/internal/auth"
	"github.com/justsurfingit/pipeline-crm/internal/config"
)

func main() {
	files, err := config.LoadGmailFiles()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	oauthConfig, err := auth.GmailConfig(files.CredentialsFile)
	if err != nil {
		log.Fatal(err)
	}
	tok, err := auth.AuthorizeInteractive(context.Background(), oauthConfig, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	if err := auth.SaveToken(files.TokenFile, tok); err != nil {
		log.Fatal(err)
	}
	log.Printf("saved token to %s", files.TokenFile)
}
