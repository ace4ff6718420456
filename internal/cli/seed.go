package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hbnb_api/internal/domain"
	"hbnb_api/internal/store"
)

// Fixtures is the seed file layout. Places and reviews refer to users by
// email and to amenities by name.
type Fixtures struct {
	Users     []userFixture    `yaml:"users"`
	Amenities []amenityFixture `yaml:"amenities"`
	States    []stateFixture   `yaml:"states"`
}

type userFixture struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type amenityFixture struct {
	Name string `yaml:"name"`
}

type stateFixture struct {
	Name   string        `yaml:"name"`
	Cities []cityFixture `yaml:"cities"`
}

type cityFixture struct {
	Name   string         `yaml:"name"`
	Places []placeFixture `yaml:"places"`
}

type placeFixture struct {
	Name            string          `yaml:"name"`
	Description     string          `yaml:"description"`
	Owner           string          `yaml:"owner"`
	NumberRooms     int             `yaml:"number_rooms"`
	NumberBathrooms int             `yaml:"number_bathrooms"`
	MaxGuest        int             `yaml:"max_guest"`
	PriceByNight    int             `yaml:"price_by_night"`
	Latitude        float64         `yaml:"latitude"`
	Longitude       float64         `yaml:"longitude"`
	Amenities       []string        `yaml:"amenities"`
	Reviews         []reviewFixture `yaml:"reviews"`
}

type reviewFixture struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

func (c *console) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load fixtures from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var fx Fixtures
			if err := yaml.Unmarshal(data, &fx); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			var n int
			err = c.store.Commit(cmd.Context(), func() (err error) {
				n, err = Seed(c.store, &fx)
				return err
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d objects\n", n)
			return err
		},
	}
}

// Seed creates every fixture in s, parents first, and returns how many
// objects were added. It does not save; run it inside a Commit so a bad
// fixture file leaves nothing behind.
func Seed(s *store.Store, fx *Fixtures) (int, error) {
	n := 0
	add := func(e domain.Entity) error {
		if err := s.New(e); err != nil {
			return err
		}
		n++
		return nil
	}

	users := map[string]string{}
	for _, f := range fx.Users {
		u := &domain.User{Email: f.Email, FirstName: f.FirstName, LastName: f.LastName}
		u.SetPassword(f.Password)
		if err := add(u); err != nil {
			return n, fmt.Errorf("user %s: %w", f.Email, err)
		}
		users[f.Email] = u.ID
	}
	amenities := map[string]string{}
	for _, f := range fx.Amenities {
		a := &domain.Amenity{Name: f.Name}
		if err := add(a); err != nil {
			return n, fmt.Errorf("amenity %s: %w", f.Name, err)
		}
		amenities[f.Name] = a.ID
	}

	lookup := func(m map[string]string, what, key string) (string, error) {
		id, ok := m[key]
		if !ok {
			return "", fmt.Errorf("unknown %s %q: %w", what, key, domain.ErrNotFound)
		}
		return id, nil
	}

	for _, sf := range fx.States {
		st := &domain.State{Name: sf.Name}
		if err := add(st); err != nil {
			return n, err
		}
		for _, cf := range sf.Cities {
			city := &domain.City{StateID: st.ID, Name: cf.Name}
			if err := add(city); err != nil {
				return n, err
			}
			for _, pf := range cf.Places {
				owner, err := lookup(users, "user", pf.Owner)
				if err != nil {
					return n, err
				}
				p := &domain.Place{
					CityID: city.ID, UserID: owner, Name: pf.Name, Description: pf.Description,
					NumberRooms: pf.NumberRooms, NumberBathrooms: pf.NumberBathrooms, MaxGuest: pf.MaxGuest,
					PriceByNight: pf.PriceByNight, Latitude: pf.Latitude, Longitude: pf.Longitude,
					AmenityIDs: []string{},
				}
				for _, name := range pf.Amenities {
					id, err := lookup(amenities, "amenity", name)
					if err != nil {
						return n, err
					}
					p.LinkAmenity(id)
				}
				if err := add(p); err != nil {
					return n, err
				}
				for _, rf := range pf.Reviews {
					author, err := lookup(users, "user", rf.Author)
					if err != nil {
						return n, err
					}
					if err := add(&domain.Review{PlaceID: p.ID, UserID: author, Text: rf.Text}); err != nil {
						return n, err
					}
				}
			}
		}
	}
	return n, nil
}
