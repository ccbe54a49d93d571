package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myhttpclient"
	"github.com/MarcGrol/shopfront/services/checkout/orderclient"
)

const (
	ProfilePath   = "/profile/users/profiles/get-my-profile"
	AddressesPath = "/profile/users/profiles/profile-subs/get-all-my-sub-profile"
)

type Image struct {
	Valid bool   `json:"valid"`
	Data  string `json:"data"`
}

type Profile struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
	Dob         string `json:"dob"`
	PhoneNumber string `json:"phone_number"`
	Gender      string `json:"gender"`
	Image       *Image `json:"image,omitempty"`
}

// Address is one of the shopper's delivery addresses.
type Address struct {
	ID          string `json:"id_address"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	District    string `json:"district"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
	IsDefault   bool   `json:"isDefault"`
}

func (a Address) ShippingAddress() orderclient.ShippingAddress {
	return orderclient.ShippingAddress{
		FullName:   a.Name,
		Phone:      a.PhoneNumber,
		Address:    a.Address,
		District:   a.District,
		City:       a.City,
		PostalCode: a.PostalCode,
	}
}

type ProfileService interface {
	GetProfile(c context.Context) (Profile, error)
	GetAddresses(c context.Context) ([]Address, error)
	DefaultAddress(c context.Context) (Address, error)
}

type service struct {
	baseURL    string
	httpClient myhttpclient.HTTPSender
}

func New(baseURL string, httpClient myhttpclient.HTTPSender) ProfileService {
	return &service{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (s *service) GetProfile(c context.Context) (Profile, error) {
	profile, err := myhttpclient.Call[Profile](c, s.httpClient, http.MethodGet, s.baseURL+ProfilePath, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("error fetching profile: %w", err)
	}
	return profile, nil
}

func (s *service) GetAddresses(c context.Context) ([]Address, error) {
	addresses, err := myhttpclient.Call[[]Address](c, s.httpClient, http.MethodGet, s.baseURL+AddressesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching addresses: %w", err)
	}
	return addresses, nil
}

// DefaultAddress returns the address marked default, or the first one.
func (s *service) DefaultAddress(c context.Context) (Address, error) {
	addresses, err := s.GetAddresses(c)
	if err != nil {
		return Address{}, err
	}
	if len(addresses) == 0 {
		return Address{}, myerrors.NewNotFoundError(errors.New("no addresses on file"))
	}
	for _, a := range addresses {
		if a.IsDefault {
			return a, nil
		}
	}
	return addresses[0], nil
}
