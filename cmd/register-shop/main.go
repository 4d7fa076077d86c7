// register-shop stores the offline session of an installed shop, so the API and the
// auto-sync scheduler can act on its behalf. It reads the same UPSYNC_* environment as
// the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/MrSnakeDoc/upsync/internal/config"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/redis"
	"github.com/MrSnakeDoc/upsync/internal/session"
	redisstore "github.com/MrSnakeDoc/upsync/internal/store/redis"
	"github.com/MrSnakeDoc/upsync/internal/utils"
)

func main() {
	shop := flag.String("shop", "", "shop domain, ex: demo.myshopify.com")
	token := flag.String("token", "", "offline Admin API access token (default: $UPSYNC_SHOP_TOKEN)")
	scope := flag.String("scope", "", "granted scopes, ex: read_products,write_products")
	remove := flag.Bool("delete", false, "delete the shop session instead of saving it")
	printToken := flag.Duration("print-session-token", 0, "also print a session token valid for this long (local testing)")
	flag.Parse()

	name := strings.ToLower(strings.TrimSpace(*shop))
	if !session.ValidShopDomain(name) {
		log.Fatalf("❌ invalid -shop %q: expected <name>.myshopify.com", *shop)
	}
	if *token == "" {
		*token = os.Getenv("UPSYNC_SHOP_TOKEN")
	}
	if !*remove && *token == "" {
		log.Fatal("❌ -token is required")
	}

	if err := run(name, *token, *scope, *remove, *printToken); err != nil {
		log.Fatalf("❌ register-shop: %v", err)
	}
}

func run(name, token, scope string, remove bool, printToken time.Duration) error {
	cfg := config.Load()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RedisConnectTimeout+10*time.Second)
	defer cancel()

	client, err := redis.New(ctx, redis.OptionsFromConfig(cfg, "upsync-register-shop"), loggerClient)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer utils.MustClose(client, "redis", loggerClient)

	store := redisstore.NewStore(client, loggerClient)

	if remove {
		if err := store.DeleteSession(ctx, name); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		if err := store.InvalidateStoreDomain(ctx, name); err != nil {
			loggerClient.Warn("failed to drop cached store domain", logger.Error(err))
		}
		loggerClient.Info("session deleted", logger.String("shop", name))
		return nil
	}

	err = store.SaveSession(ctx, session.Session{
		Shop:        name,
		AccessToken: token,
		Scope:       scope,
		InstalledAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	loggerClient.Info("session saved", logger.String("shop", name))

	if printToken > 0 {
		signed, err := session.Sign(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, name, printToken)
		if err != nil {
			return fmt.Errorf("failed to sign session token: %w", err)
		}
		fmt.Println(signed)
	}
	return nil
}
