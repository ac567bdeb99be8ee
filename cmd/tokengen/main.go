// Package main provides a CLI tool for generating test tokens for the VerifyX API.
// These tokens use the dev signing key and will NOT work in production.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	idservice "verifyx/internal/identity/service"
	idstore "verifyx/internal/identity/store"
	"verifyx/internal/jwttoken"
	"verifyx/internal/platform/config"
	"verifyx/internal/platform/database"
	id "verifyx/pkg/domain"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "verifyx"
	defaultAudience = "verifyx-api"
	defaultTokenTTL = 15 * time.Minute
)

var flagWallet = &cli.StringFlag{
	Name:     "wallet",
	Usage:    "Wallet address (0x-prefixed, 40 hex chars)",
	Required: true,
}

var flagSigningKey = &cli.StringFlag{
	Name:    "signing-key",
	Value:   devSigningKey,
	Usage:   "HMAC signing key",
	EnvVars: []string{"JWT_SIGNING_KEY"},
}

var flagTTL = &cli.DurationFlag{
	Name:  "ttl",
	Value: defaultTokenTTL,
	Usage: "Token time-to-live",
}

var flagJSON = &cli.BoolFlag{
	Name:  "json",
	Usage: "Output as JSON",
}

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	app := &cli.App{
		Name:  "tokengen",
		Usage: "Generate test bearer tokens for the VerifyX API",
		Commands: []*cli.Command{
			{
				Name:  "token",
				Usage: "Mint a token for an existing user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user-id", Usage: "User ID (UUID). Generated if empty."},
					flagWallet,
					flagSigningKey,
					flagTTL,
					flagJSON,
				},
				Action: func(cCtx *cli.Context) error {
					userID := id.NewUserID()
					if raw := cCtx.String("user-id"); raw != "" {
						parsed, err := id.ParseUserID(raw)
						if err != nil {
							return fmt.Errorf("invalid user-id: %w", err)
						}
						userID = parsed
					}
					wallet, err := id.ParseWalletAddress(cCtx.String(flagWallet.Name))
					if err != nil {
						return fmt.Errorf("invalid wallet: %w", err)
					}
					return mint(cCtx, userID, wallet)
				},
			},
			{
				Name:        "signin",
				Usage:       "Create or load the user for a wallet, then mint a token",
				Description: "Uses DATABASE_URL when set so the server sees the same user row; otherwise the user only lives for this process.",
				Flags: []cli.Flag{
					flagWallet,
					flagSigningKey,
					flagTTL,
					flagJSON,
				},
				Action: func(cCtx *cli.Context) error {
					wallet, err := id.ParseWalletAddress(cCtx.String(flagWallet.Name))
					if err != nil {
						return fmt.Errorf("invalid wallet: %w", err)
					}
					users, closeFn, err := identityService(cCtx.Context)
					if err != nil {
						return err
					}
					defer closeFn()

					user, err := users.SignIn(cCtx.Context, wallet)
					if err != nil {
						return fmt.Errorf("sign in: %w", err)
					}
					return mint(cCtx, user.ID, user.WalletAddress)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func identityService(ctx context.Context) (*idservice.Service, func(), error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	pool, err := database.New(ctx, config.Database{URL: os.Getenv("DATABASE_URL"), MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		return nil, nil, err
	}
	if pool == nil {
		return idservice.New(idstore.NewInMemoryUserStore(), idservice.WithLogger(logger)), func() {}, nil
	}
	return idservice.New(idstore.NewPostgres(pool.DB()), idservice.WithLogger(logger)), func() { _ = pool.Close() }, nil
}

func mint(cCtx *cli.Context, userID id.UserID, wallet id.WalletAddress) error {
	ttl := cCtx.Duration(flagTTL.Name)
	svc := jwttoken.NewJWTService(cCtx.String(flagSigningKey.Name), defaultIssuer, defaultAudience, ttl)
	token, err := svc.GenerateAccessToken(cCtx.Context, userID, wallet)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	if cCtx.Bool(flagJSON.Name) {
		return printJSON(tokenOutput{
			Token:     token,
			Type:      "access_token",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"user_id": userID.String(),
				"wallet":  wallet.String(),
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
	}

	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Printf("User ID:     %s\n", userID)
	fmt.Printf("Wallet:      %s\n", wallet)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/api/v1/activity")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
