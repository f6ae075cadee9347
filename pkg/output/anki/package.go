package anki

import (
	"archive/zip"
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/duoload/pkg/output"
	"github.com/Sternrassler/duoload/pkg/vocab"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schemaSQL string

const (
	collectionEntry = "collection.anki2"
	mediaEntry      = "media"
)

// Builder accumulates notes and writes them as an .apkg file on Finalize.
// Only file destinations are supported: the package is assembled from an
// SQLite file and written to the target path in one step.
type Builder struct {
	deckName string
	notes    []Note
	words    map[string]struct{}
	logger   zerolog.Logger
	now      func() time.Time
}

// New returns an empty builder for a deck called deckName.
func New(deckName string) *Builder {
	if strings.TrimSpace(deckName) == "" {
		deckName = DefaultDeckName
	}
	return &Builder{
		deckName: deckName,
		words:    make(map[string]struct{}),
		logger:   log.With().Str("component", "anki-output").Logger(),
		now:      time.Now,
	}
}

// Add converts card to a note unless a note for the same word exists.
func (b *Builder) Add(card vocab.Card) (bool, error) {
	if _, ok := b.words[card.Word]; ok {
		return false, nil
	}
	b.words[card.Word] = struct{}{}
	b.notes = append(b.notes, NewNote(card))
	return true, nil
}

// Len returns the number of notes.
func (b *Builder) Len() int {
	return len(b.notes)
}

// Finalize writes the package to dest, which must be a file destination.
func (b *Builder) Finalize(ctx context.Context, dest output.Destination) error {
	if dest.Kind != output.KindFile {
		return output.Unsupported("anki", dest)
	}
	if dest.Path == "" {
		return fmt.Errorf("file destination has no path")
	}

	start := time.Now()
	if err := b.writePackage(ctx, dest.Path); err != nil {
		return err
	}

	b.logger.Info().
		Str("path", dest.Path).
		Str("deck", b.deckName).
		Int("notes", len(b.notes)).
		Dur("duration", time.Since(start)).
		Msg("Anki package written")
	return nil
}

func (b *Builder) writePackage(ctx context.Context, path string) error {
	workDir, err := os.MkdirTemp("", "duoload-apkg-")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	dbPath := filepath.Join(workDir, collectionEntry)
	if err := b.writeCollection(ctx, dbPath); err != nil {
		return err
	}

	// Assemble next to the target so the final rename stays on one filesystem.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".duoload-*.apkg")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeZip(tmp, dbPath); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close package: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("move package to %s: %w", path, err)
	}
	return nil
}

// writeCollection creates the SQLite collection at dbPath.
func (b *Builder) writeCollection(ctx context.Context, dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("open collection: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := initSchema(ctx, db); err != nil {
		return fmt.Errorf("init collection schema: %w", err)
	}

	now := b.now()
	meta, err := buildCollectionJSON(b.deckName, now)
	if err != nil {
		return fmt.Errorf("encode collection metadata: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	sec := now.Unix()
	ms := now.UnixMilli()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		 VALUES (1, ?, ?, ?, 11, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		sec, ms, ms, meta.Conf, meta.Models, meta.Decks, meta.DConf)
	if err != nil {
		return fmt.Errorf("insert col: %w", err)
	}

	noteStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
		 VALUES (?, ?, ?, ?, -1, ?, ?, ?, ?, 0, '')`)
	if err != nil {
		return fmt.Errorf("prepare notes: %w", err)
	}
	defer noteStmt.Close()

	cardStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data)
		 VALUES (?, ?, ?, 0, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`)
	if err != nil {
		return fmt.Errorf("prepare cards: %w", err)
	}
	defer cardStmt.Close()

	for i, n := range b.notes {
		noteID := ms + int64(i)
		if _, err := noteStmt.ExecContext(ctx,
			noteID, n.GUID, ModelID, sec, n.tagString(), n.joinedFields(), n.sortField(), n.checksum()); err != nil {
			return fmt.Errorf("insert note %q: %w", n.Fields[0], err)
		}
		if _, err := cardStmt.ExecContext(ctx, noteID, noteID, DeckID, sec, i+1); err != nil {
			return fmt.Errorf("insert card %q: %w", n.Fields[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// initSchema runs schema.sql one statement at a time.
func initSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// writeZip writes the package archive holding the collection at dbPath.
func writeZip(w io.Writer, dbPath string) error {
	zw := zip.NewWriter(w)

	dbFile, err := os.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open collection: %w", err)
	}
	defer dbFile.Close()

	entry, err := zw.Create(collectionEntry)
	if err != nil {
		return fmt.Errorf("zip %s: %w", collectionEntry, err)
	}
	if _, err := io.Copy(entry, dbFile); err != nil {
		return fmt.Errorf("zip %s: %w", collectionEntry, err)
	}

	media, err := zw.Create(mediaEntry)
	if err != nil {
		return fmt.Errorf("zip %s: %w", mediaEntry, err)
	}
	if _, err := io.WriteString(media, "{}"); err != nil {
		return fmt.Errorf("zip %s: %w", mediaEntry, err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	return nil
}
