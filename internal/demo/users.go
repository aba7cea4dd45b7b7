package demo

import (
	"encoding/json"
	"fmt"
	"strings"

	"webserver/pkg/mvc"
	"webserver/pkg/store"
)

const userPrefix = "users/"

type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type Rename struct {
	Name string `json:"name"`
}

type Users struct {
	mvc.Base
	store *store.Store
}

func usersController(d *Deps) mvc.ControllerDef {
	return mvc.Define("Users", func() *Users { return &Users{store: d.Store} }).
		Use(d.Guard...).
		Handle("Create", mvc.Route{
			Method:      "POST",
			Path:        "/users",
			ContentType: mvc.ContentJSON,
			Params:      []mvc.Param{mvc.ModelParam[User]("user")},
		}, (*Users).Create).
		Handle("List", mvc.Route{
			Method: "GET",
			Path:   "/users",
			Params: []mvc.Param{mvc.NewParam("limit", mvc.KindInt).WithDefault(50)},
		}, (*Users).List).
		Handle("Get", mvc.Route{
			Method: "GET",
			Path:   "/user",
			Params: []mvc.Param{mvc.NewParam("id", mvc.KindInt)},
		}, (*Users).Get).
		Handle("Rename", mvc.Route{
			Method:      "POST",
			Path:        "/users/rename",
			ContentType: mvc.ContentJSON,
			Params: []mvc.Param{
				mvc.NewParam("id", mvc.KindInt),
				mvc.ModelParam[Rename]("rename").InBody(),
			},
		}, (*Users).Rename).
		Build()
}

func userKey(id int) string {
	return fmt.Sprintf("%s%010d", userPrefix, id)
}

func (u *Users) Create(args *mvc.Args) (mvc.Result, error) {
	in, ok := mvc.ModelOf[User](args, "user")
	if !ok {
		return nil, mvc.BadRequest("user body required")
	}
	if in.ID <= 0 {
		return nil, mvc.BadRequest("id must be positive")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := u.save(in); err != nil {
		return nil, err
	}
	return mvc.JSON(in), nil
}

func (u *Users) List(args *mvc.Args) (mvc.Result, error) {
	limit := args.Int("limit")
	if limit <= 0 || limit > 500 {
		return nil, mvc.BadRequest("limit must be between 1 and 500")
	}
	kvs, err := u.store.List(userPrefix, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]User, 0, len(kvs))
	for _, kv := range kvs {
		var usr User
		if err := json.Unmarshal(kv.Value, &usr); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kv.Key, err)
		}
		out = append(out, usr)
	}
	return mvc.JSON(out), nil
}

func (u *Users) Get(args *mvc.Args) (mvc.Result, error) {
	usr, err := u.load(args.Int("id"))
	if err != nil {
		return nil, err
	}
	return mvc.JSON(usr), nil
}

func (u *Users) Rename(args *mvc.Args) (mvc.Result, error) {
	r, ok := mvc.ModelOf[Rename](args, "rename")
	if !ok || strings.TrimSpace(r.Name) == "" {
		return nil, mvc.BadRequest("name required")
	}
	usr, err := u.load(args.Int("id"))
	if err != nil {
		return nil, err
	}
	usr.Name = strings.TrimSpace(r.Name)
	if err := u.save(usr); err != nil {
		return nil, err
	}
	return mvc.JSON(usr), nil
}

func (u *Users) load(id int) (*User, error) {
	raw, err := u.store.Get(userKey(id))
	if store.IsNotFound(err) {
		return nil, mvc.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	var usr User
	if err := json.Unmarshal(raw, &usr); err != nil {
		return nil, fmt.Errorf("decode user %d: %w", id, err)
	}
	return &usr, nil
}

func (u *Users) save(usr *User) error {
	raw, err := json.Marshal(usr)
	if err != nil {
		return err
	}
	if err := u.store.Set(userKey(usr.ID), raw); err != nil {
		return fmt.Errorf("save user %d: %w", usr.ID, err)
	}
	return nil
}
