// momentumctl is the operator tool for the admin surface: it mints a
// short-lived token and sends a direct WhatsApp message through a running
// server, useful for smoke tests and manual nudges.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/momentum-ia/momentum/internal/server/auth"
)

func main() {

	addr := flag.String("a", "http://localhost:8080", "server base URL")
	secret := flag.String("s", "", "shared secret key")
	operator := flag.String("o", "ops", "operator name recorded in the token")
	to := flag.String("t", "", "recipient phone number")
	body := flag.String("b", "", "message body")
	flag.Parse()

	if *secret == "" || *to == "" || *body == "" {
		log.Fatal("usage: momentumctl -s <secret> -t <to> -b <body> [-a addr] [-o operator]")
	}

	token, err := auth.GenerateToken(*operator, []byte(*secret), 15*time.Minute)
	if err != nil {
		log.Fatalf("token error: %v", err)
	}

	payload, err := json.Marshal(map[string]string{"to": *to, "body": *body})
	if err != nil {
		log.Fatalf("encode error: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, *addr+"/admin/send", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("request error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("send error: %v", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s\n", resp.Status, string(out))
}
