// Package main provides a tool to seed the database with demo data.
//
// It creates a handful of users, shared carts with items, and personal
// todos so the API and activity feed have something to show during
// development.
//
// Usage:
//
//	DATA_PATH=~/Cartboard/data go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/cartboardapp/cartboard-server/internal/auth"
	"github.com/cartboardapp/cartboard-server/internal/domain"
	"github.com/cartboardapp/cartboard-server/internal/service"
	"github.com/cartboardapp/cartboard-server/internal/store"
	"github.com/cartboardapp/cartboard-server/internal/store/sqlite"
)

var seedTodos = flag.Bool("todos", true, "Also seed personal todos for each user")

type seedUser struct {
	email       string
	displayName string
}

var demoUsers = []seedUser{
	{"alice@example.com", "Alice"},
	{"bob@example.com", "Bob"},
	{"carol@example.com", "Carol"},
}

var demoItems = []struct{ name, quantity string }{
	{"Milk", "2"},
	{"Eggs", "a dozen"},
	{"Bread", ""},
	{"Coffee", "500g"},
	{"Apples", "6"},
	{"Pasta", "2 packs"},
}

func main() {
	flag.Parse()

	base := os.Getenv("DATA_PATH")
	if base == "" {
		base = os.ExpandEnv("$HOME/Cartboard/data")
	}

	fmt.Printf("Seeding data directory: %s\n", base)

	s, err := store.New(filepath.Join(base, "tree"), nil)
	if err != nil {
		log.Fatalf("Failed to open tree store: %v", err)
	}
	defer s.Close()

	activityStore, err := sqlite.Open(filepath.Join(base, "activities.db"), nil)
	if err != nil {
		log.Fatalf("Failed to open activity store: %v", err)
	}
	defer activityStore.Close()

	key, err := auth.LoadOrGenerateKey(base)
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}
	tokenService, err := auth.NewTokenService(fmt.Sprintf("%x", key), 15*time.Minute, 720*time.Hour)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	activities := service.NewActivityService(activityStore, nil)
	sessions := service.NewSessionService(s, tokenService, nil, nil)
	authService := service.NewAuthService(s, tokenService, sessions, nil, nil)
	carts := service.NewCartService(s, activities, nil, nil)
	todos := service.NewTodoService(s, activities, nil, nil)

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	users := make([]*domain.User, 0, len(demoUsers))
	for _, su := range demoUsers {
		user, err := ensureUser(ctx, s, authService, su)
		if err != nil {
			log.Fatalf("Failed to create user %s: %v", su.email, err)
		}
		users = append(users, user)
	}

	seedCarts(ctx, carts, users, rng)

	if *seedTodos {
		seedUserTodos(ctx, todos, users, rng)
	}

	fmt.Println("\nDone. Demo accounts use password 'cartboard-demo'.")
}

// ensureUser registers the demo user, reusing the existing account when
// the seed has run before.
func ensureUser(ctx context.Context, s *store.Store, authService *service.AuthService, su seedUser) (*domain.User, error) {
	if existing, err := s.GetUserByEmail(ctx, su.email); err == nil {
		fmt.Printf("User %s already exists\n", su.email)
		return existing, nil
	}

	resp, err := authService.Register(ctx, service.RegisterRequest{
		Email:       su.email,
		Password:    "cartboard-demo",
		DisplayName: su.displayName,
	})
	if err != nil {
		return nil, err
	}
	fmt.Printf("Created user %s (%s)\n", su.displayName, resp.User.ID)
	return resp.User, nil
}

// seedCarts creates one shared cart owned by each user, enrolls the
// others, and fills it with a few items.
func seedCarts(ctx context.Context, cartService *service.CartService, users []*domain.User, rng *rand.Rand) {
	names := []string{"Groceries", "Hardware Store", "Weekend BBQ"}

	for i, owner := range users {
		cart, err := cartService.CreateCart(ctx, owner, service.CreateCartRequest{Name: names[i%len(names)]})
		if err != nil {
			log.Printf("Skipping cart for %s: %v", owner.Name(), err)
			continue
		}
		fmt.Printf("Created cart %q (%s) owned by %s\n", cart.Name, cart.ID, owner.Name())

		for _, member := range users {
			if member.ID == owner.ID {
				continue
			}
			if _, err := cartService.JoinCart(ctx, member, cart.ID); err != nil {
				log.Printf("  %s could not join: %v", member.Name(), err)
			}
		}

		numItems := 2 + rng.Intn(3)
		for j := range numItems {
			item := demoItems[(i+j)%len(demoItems)]
			adder := users[rng.Intn(len(users))]
			if _, err := cartService.AddItem(ctx, adder, cart.ID, service.AddItemRequest{
				Name:     item.name,
				Quantity: item.quantity,
			}); err != nil {
				log.Printf("  failed to add %s: %v", item.name, err)
				continue
			}
			fmt.Printf("  %s added %s\n", adder.Name(), item.name)
		}
	}
}

// seedUserTodos creates a small spread of todos per user: one due soon,
// one already overdue, one completed.
func seedUserTodos(ctx context.Context, todoService *service.TodoService, users []*domain.User, rng *rand.Rand) {
	priorities := []string{"low", "medium", "high"}
	now := time.Now()

	for _, user := range users {
		soon := now.Add(time.Duration(1+rng.Intn(5)) * 24 * time.Hour)
		past := now.Add(-time.Duration(1+rng.Intn(3)) * 24 * time.Hour)

		specs := []service.AddTodoRequest{
			{Title: "Plan the week's meals", Priority: priorities[rng.Intn(len(priorities))], DueDate: &soon, Tags: []string{"home"}},
			{Title: "Return library books", Priority: "medium", DueDate: &past},
			{Title: "Water the plants", Priority: "low"},
		}

		for i, req := range specs {
			todo, err := todoService.AddTodo(ctx, user, req)
			if err != nil {
				log.Printf("Failed to add todo for %s: %v", user.Name(), err)
				continue
			}
			// Mark the last one done so the feed has a completion entry.
			if i == len(specs)-1 {
				if _, err := todoService.ToggleTodoStatus(ctx, user, todo.ID); err != nil {
					log.Printf("Failed to complete todo: %v", err)
				}
			}
		}
		fmt.Printf("Seeded todos for %s\n", user.Name())
	}
}
