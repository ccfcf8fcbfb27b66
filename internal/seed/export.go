package seed

import (
	"context"
	"fmt"
	"io"
	"time"

	"librarium/internal/models"
	"librarium/internal/repository"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// CatalogExport is the YAML document written by Export.
type CatalogExport struct {
	ExportedAt time.Time    `yaml:"exported_at"`
	Authors    []string     `yaml:"authors"`
	Tags       []string     `yaml:"tags"`
	Books      []BookRecord `yaml:"books"`
}

// BookRecord is one catalog entry in an export.
type BookRecord struct {
	Title         string   `yaml:"title"`
	YearPublished *int     `yaml:"year_published,omitempty"`
	Description   string   `yaml:"description,omitempty"`
	Quantity      int      `yaml:"quantity"`
	Available     int      `yaml:"available"`
	Authors       []string `yaml:"authors,omitempty"`
	Tags          []string `yaml:"tags,omitempty"`
	AvgRating     *float64 `yaml:"avg_rating,omitempty"`
	Comments      int      `yaml:"comments"`
}

// BuildExport reads the whole catalog page by page.
func BuildExport(ctx context.Context, db *gorm.DB, now time.Time) (*CatalogExport, error) {
	out := &CatalogExport{ExportedAt: now.UTC()}

	authors, err := repository.NewAuthorRepository(db).List(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, a := range authors {
		out.Authors = append(out.Authors, a.Name)
	}

	tags, err := repository.NewTagRepository(db).List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		out.Tags = append(out.Tags, t.Content)
	}

	books := repository.NewBookRepository(db)
	for offset := 0; ; offset += repository.MaxPageSize {
		page, err := books.List(ctx, repository.BookFilter{
			Page: repository.Page{Limit: repository.MaxPageSize, Offset: offset},
		})
		if err != nil {
			return nil, err
		}
		for i := range page {
			out.Books = append(out.Books, recordOf(&page[i]))
		}
		if len(page) < repository.MaxPageSize {
			break
		}
	}
	return out, nil
}

func recordOf(b *models.Book) BookRecord {
	rec := BookRecord{
		Title:         b.Title,
		YearPublished: b.YearPublished,
		Description:   b.Description,
		Quantity:      b.Quantity,
		Available:     b.Available,
		AvgRating:     b.AvgRating,
		Comments:      b.CommentsCount,
	}
	for _, a := range b.Authors {
		rec.Authors = append(rec.Authors, a.Name)
	}
	for _, t := range b.Tags {
		rec.Tags = append(rec.Tags, t.Content)
	}
	return rec
}

// Export writes the catalog as YAML to w.
func Export(ctx context.Context, db *gorm.DB, w io.Writer) error {
	doc, err := BuildExport(ctx, db, time.Now())
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
