package demo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"webserver/pkg/mvc"
	"webserver/pkg/store"
)

const avatarPrefix = "avatars/"

type Avatar struct {
	User        string    `json:"user"`
	File        string    `json:"file"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int       `json:"size"`
	SizeHuman   string    `json:"size_human"`
	Uploaded    time.Time `json:"uploaded"`
}

type DocumentSummary struct {
	Count int            `json:"count"`
	Total string         `json:"total"`
	Files []DocumentInfo `json:"files"`
}

type DocumentInfo struct {
	Field    string `json:"field"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

type Uploads struct {
	mvc.Base
	store *store.Store
	dir   string
}

func uploadsController(d *Deps) mvc.ControllerDef {
	return mvc.Define("Uploads", func() *Uploads { return &Uploads{store: d.Store, dir: d.UploadDir} }).
		Use(d.Guard...).
		Handle("SaveAvatar", mvc.Route{
			Method:      "POST",
			Path:        "/avatars",
			ContentType: mvc.ContentMultipart,
			Params: []mvc.Param{
				mvc.NewParam("user", mvc.KindString),
				mvc.NewParam("avatar", mvc.KindFile),
			},
		}, (*Uploads).SaveAvatar).
		Handle("Avatar", mvc.Route{
			Method: "GET",
			Path:   "/avatar",
			Params: []mvc.Param{mvc.NewParam("user", mvc.KindString)},
		}, (*Uploads).Avatar).
		Handle("Documents", mvc.Route{
			Method:      "POST",
			Path:        "/documents",
			ContentType: mvc.ContentMultipart,
			Params:      []mvc.Param{mvc.NewParam("docs", mvc.KindFiles)},
		}, (*Uploads).Documents).
		Handle("Note", mvc.Route{
			Method:      "POST",
			Path:        "/notes",
			ContentType: mvc.ContentMultipart,
			Params: []mvc.Param{
				mvc.NewParam("note", mvc.KindString),
				mvc.NewParam("meta", mvc.KindBytes),
			},
		}, (*Uploads).Note).
		Build()
}

func (u *Uploads) SaveAvatar(args *mvc.Args) (mvc.Result, error) {
	user := cleanName(args.String("user"))
	if user == "" {
		return nil, mvc.BadRequest("user required")
	}
	part := args.File("avatar")
	if part == nil || part.Size() == 0 {
		return nil, mvc.BadRequest("avatar file required")
	}
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	name := user + filepath.Ext(cleanName(part.Filename))
	path := filepath.Join(u.dir, name)
	if err := os.WriteFile(path, part.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write avatar: %w", err)
	}

	meta := Avatar{
		User:        user,
		File:        name,
		ContentType: part.ContentType,
		Size:        part.Size(),
		SizeHuman:   humanize.Bytes(uint64(part.Size())),
		Uploaded:    time.Now().UTC(),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	if err := u.store.Set(avatarPrefix+user, raw); err != nil {
		return nil, fmt.Errorf("save avatar metadata: %w", err)
	}
	return mvc.JSON(meta), nil
}

func (u *Uploads) Avatar(args *mvc.Args) (mvc.Result, error) {
	user := cleanName(args.String("user"))
	raw, err := u.store.Get(avatarPrefix + user)
	if store.IsNotFound(err) {
		return nil, mvc.NotFound("no avatar for %q", user)
	}
	if err != nil {
		return nil, err
	}
	var meta Avatar
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode avatar metadata: %w", err)
	}
	return mvc.Content(filepath.Join(u.dir, meta.File)), nil
}

func (u *Uploads) Documents(args *mvc.Args) (mvc.Result, error) {
	files := args.Files("docs")
	sum := DocumentSummary{Count: len(files), Files: make([]DocumentInfo, 0, len(files))}
	total := 0
	for _, f := range files {
		total += f.Size()
		sum.Files = append(sum.Files, DocumentInfo{Field: f.Key, Filename: f.Filename, Size: f.Size()})
	}
	sum.Total = humanize.Bytes(uint64(total))
	return mvc.JSON(sum), nil
}

func (u *Uploads) Note(args *mvc.Args) (mvc.Result, error) {
	note := args.String("note")
	if note == "" {
		return nil, mvc.BadRequest("note required")
	}
	return mvc.Text(fmt.Sprintf("%s (%d bytes of metadata)", note, len(args.Bytes("meta")))), nil
}

// cleanName keeps a client-supplied name to one safe path element.
func cleanName(s string) string {
	s = filepath.Base(strings.TrimSpace(s))
	if s == "." || s == ".." || s == string(filepath.Separator) {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}
