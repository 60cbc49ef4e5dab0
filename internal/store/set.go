package store

import (
	"errors"
	"fmt"
	"log/slog"
)

// Table names one backing table: the delimited-text file name, the SQL
// table name and the column header.
type Table struct {
	File   string
	Name   string
	Header []string
}

// Tables lists the backing tables of a Set.
var Tables = struct {
	Links, Ratings, Fridge Table
}{
	Links:   Table{File: LinksFile, Name: LinkSchema.Name, Header: LinkHeader},
	Ratings: Table{File: RatingsFile, Name: RatingSchema.Name, Header: RatingHeader},
	Fridge:  Table{File: FridgeFile, Name: "fridge", Header: FridgeHeader},
}

// Opener returns the backend for one table.
type Opener func(t Table) (Backend, error)

// Set bundles the user stores.
type Set struct {
	Links   *Links
	Ratings *Ratings
	Fridge  *Fridge
}

// OpenSet opens every user store through open. A failure closes whatever
// was already opened.
func OpenSet(open Opener, logger *slog.Logger) (*Set, error) {
	s := &Set{}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	b, err := open(Tables.Links)
	if err != nil {
		return nil, fmt.Errorf("store: open links backend: %w", err)
	}
	if s.Links, err = OpenLinks(b, logger); err != nil {
		return nil, err
	}

	if b, err = open(Tables.Ratings); err != nil {
		return nil, fmt.Errorf("store: open ratings backend: %w", err)
	}
	if s.Ratings, err = OpenRatings(b, logger); err != nil {
		return nil, err
	}

	if b, err = open(Tables.Fridge); err != nil {
		return nil, fmt.Errorf("store: open fridge backend: %w", err)
	}
	if s.Fridge, err = OpenFridge(b, logger); err != nil {
		return nil, err
	}

	ok = true
	return s, nil
}

// Close closes every open store.
func (s *Set) Close() error {
	var errs []error
	if s.Links != nil {
		errs = append(errs, s.Links.Close())
	}
	if s.Ratings != nil {
		errs = append(errs, s.Ratings.Close())
	}
	if s.Fridge != nil {
		errs = append(errs, s.Fridge.Close())
	}
	return errors.Join(errs...)
}
