// Command tokengen prints a signed bearer token for local development.
//
//	tokengen -role student -id S1001
//	tokengen -role admin -id W01 -ttl 8h
//
// The secret defaults to JWT_SECRET (or .env), matching the server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/warp/hostel-leave/auth"
	"github.com/warp/hostel-leave/config"
	"github.com/warp/hostel-leave/lifecycle"
)

func main() {
	cfg := config.Load()

	role := flag.String("role", "student", "actor role: student or admin")
	id := flag.String("id", "", "student or admin identifier (required)")
	ttl := flag.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
	secret := flag.String("secret", cfg.Auth.JWTSecret, "HS256 signing secret")
	flag.Parse()

	r, ok := lifecycle.ParseRole(*role)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown role %q (use student or admin)\n", *role)
		os.Exit(2)
	}
	if *id == "" {
		fmt.Fprintln(os.Stderr, "-id is required")
		flag.Usage()
		os.Exit(2)
	}

	token, err := auth.Issue([]byte(*secret), lifecycle.Actor{Role: r, ID: *id}, *ttl, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
