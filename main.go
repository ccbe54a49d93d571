package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/shopfront/lib/myconfig"
	"github.com/MarcGrol/shopfront/lib/mystore"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/lib/myuuid"
	"github.com/MarcGrol/shopfront/services/fakebackend"
)

// main runs the development backend that shopctl talks to.
func main() {
	c := context.Background()

	cfg, err := myconfig.Load(".env")
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}

	router := mux.NewRouter()

	cartStore, cartStoreCleanup, err := mystore.New[fakebackend.StoredCart](c, "")
	if err != nil {
		log.Fatalf("Error creating cart store: %s", err)
	}
	defer cartStoreCleanup()

	orderStore, orderStoreCleanup, err := mystore.New[fakebackend.StoredOrder](c, "")
	if err != nil {
		log.Fatalf("Error creating order store: %s", err)
	}
	defer orderStoreCleanup()

	backend := fakebackend.NewService(fakebackend.Config{
		SigningKey:  cfg.SigningKey,
		TokenTTL:    cfg.TokenTTL,
		ShippingFee: cfg.ShippingFee,
	}, cartStore, orderStore, mytime.RealNower{}, myuuid.RealUUIDer{})
	backend.AddUser(fakebackend.DemoUser())
	backend.AddProducts(fakebackend.DemoCatalog...)
	backend.AddVouchers(fakebackend.DemoVouchers...)

	err = backend.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering backend endpoints: %s", err)
	}

	startWebServerBlocking(cfg.Port, router)
}

func startWebServerBlocking(port string, router *mux.Router) {
	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
