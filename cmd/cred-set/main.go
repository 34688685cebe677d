package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/minsupark/titleforge/internal/credstore"
)

func main() {
	dbPath := flag.String("db", "credentials.db", "Credential store SQLite path")
	service := flag.String("service", "", "Service to configure: searchad, shopping or ai (omit to list stored services)")
	license := flag.String("license", "", "SearchAd license key")
	secret := flag.String("secret", "", "SearchAd secret key / shopping client secret")
	customer := flag.String("customer", "", "SearchAd customer ID")
	clientID := flag.String("client-id", "", "Shopping client ID")
	apiKey := flag.String("api-key", "", "AI provider API key")
	flag.Parse()

	store, err := credstore.Open(*dbPath)
	if err != nil {
		log.Fatalf("open credential store: %v", err)
	}
	defer store.Close()

	switch *service {
	case "":
		infos, err := store.List()
		if err != nil {
			log.Fatal(err)
		}
		if len(infos) == 0 {
			fmt.Println("no stored credentials")
			return
		}
		for _, info := range infos {
			fmt.Printf("%s\t(updated %s)\n", info.ServiceName, info.UpdatedAt)
		}
	case "searchad":
		if *license == "" || *secret == "" || *customer == "" {
			log.Fatal("searchad needs -license, -secret and -customer")
		}
		err = store.Save(credstore.ServiceSearchAd, credstore.SearchAdCredentials{
			LicenseKey: *license, SecretKey: *secret, CustomerID: *customer,
		})
	case "shopping":
		if *clientID == "" || *secret == "" {
			log.Fatal("shopping needs -client-id and -secret")
		}
		err = store.Save(credstore.ServiceShopping, credstore.ShoppingCredentials{
			ClientID: *clientID, ClientSecret: *secret,
		})
	case "ai":
		if *apiKey == "" {
			log.Fatal("ai needs -api-key")
		}
		err = store.Save(credstore.ServiceAI, credstore.AICredentials{APIKey: *apiKey})
	default:
		log.Fatalf("unknown service %q", *service)
	}
	if err != nil {
		log.Fatal(err)
	}
	if *service != "" {
		log.Printf("titleforge cred saved service=%s db=%s", *service, *dbPath)
	}
}
