// Package fixture reads the JSON documents used to seed a record store for
// local development and tests.
package fixture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"finboard-server/src/db"
	"finboard-server/src/models"
	"finboard-server/src/util"
)

type File struct {
	Users []User `json:"users"`
}

type User struct {
	UserID string `json:"user_id"`
	Items  []Item `json:"items"`
}

type Item struct {
	models.Item
	Accounts []Account `json:"accounts"`
}

type Account struct {
	models.Account
	Transactions []models.Transaction `json:"transactions"`
}

func Decode(r io.Reader) (File, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

func ReadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()
	return Decode(fh)
}

// Records lays the fixture out in the single-table key scheme. Parent ids
// are filled in from the nesting.
func (f File) Records() ([]db.Record, error) {
	var records []db.Record
	for _, u := range f.Users {
		if !util.ValidateID(u.UserID) {
			return nil, fmt.Errorf("invalid user id %q", u.UserID)
		}
		for _, it := range u.Items {
			item := it.Item
			if !util.ValidateID(item.ItemID) {
				return nil, fmt.Errorf("user %s: invalid item id %q", u.UserID, item.ItemID)
			}
			item.UserID = u.UserID
			r, err := withData(db.ItemRecordKeys(u.UserID, item.ItemID), item)
			if err != nil {
				return nil, err
			}
			records = append(records, r)

			for _, ac := range it.Accounts {
				account := ac.Account
				if !util.ValidateID(account.AccountID) {
					return nil, fmt.Errorf("item %s: invalid account id %q", item.ItemID, account.AccountID)
				}
				account.ItemID = item.ItemID
				account.UserID = u.UserID
				r, err := withData(db.AccountRecordKeys(u.UserID, item.ItemID, account.AccountID), account)
				if err != nil {
					return nil, err
				}
				records = append(records, r)

				for _, t := range ac.Transactions {
					if !util.ValidateID(t.TransactionID) {
						return nil, fmt.Errorf("account %s: transaction %q needs an id", account.AccountID, t.TransactionID)
					}
					if _, err := time.Parse(time.DateOnly, t.Date); err != nil {
						return nil, fmt.Errorf("account %s: transaction %s: date %q is not YYYY-MM-DD", account.AccountID, t.TransactionID, t.Date)
					}
					t.AccountID = account.AccountID
					r, err := withData(db.TransactionRecordKeys(u.UserID, account.AccountID, t.Date, t.TransactionID), t)
					if err != nil {
						return nil, err
					}
					records = append(records, r)
				}
			}
		}
	}
	return records, nil
}

func withData(r db.Record, v any) (db.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return db.Record{}, fmt.Errorf("encode %s/%s: %w", r.PK, r.SK, err)
	}
	r.Data = data
	return r, nil
}
