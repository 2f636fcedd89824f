package deviceauth_test

import (
	"context"
	"fmt"

	"github.com/MrEthical07/deviceauth"
	"github.com/MrEthical07/deviceauth/kv"
)

// ExampleNew builds an engine over in-memory stores.
func ExampleNew() {
	cfg := deviceauth.DefaultConfig()
	cfg.Session.PrivateKey = []byte("0123456789abcdef0123456789abcdef")

	engine, err := deviceauth.New().
		WithConfig(cfg).
		WithStore(kv.NewMemory()).
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer engine.Close()

	fmt.Println(engine.Config().Lockout.MaxAttempts)
	// Output: 5
}

// ExampleEngine_Login shows how expected failures arrive in LoginResult.
func ExampleEngine_Login() {
	cfg := deviceauth.DefaultConfig()
	cfg.Session.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	engine, _ := deviceauth.New().WithConfig(cfg).WithStore(kv.NewMemory()).Build()
	defer engine.Close()

	ctx := context.Background()
	engine.Register(ctx, deviceauth.RegistrationData{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "Secret@123",
	})

	res, _ := engine.Login(ctx, "alice", "wrong")
	fmt.Println(res.Error)

	res, _ = engine.Login(ctx, "alice@example.com", "Secret@123")
	fmt.Println(res.Success, res.User.Username)
	// Output:
	// Invalid credentials. 4 attempt(s) remaining.
	// true alice
}
