package classify

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "meteoval/internal/errors"
	"meteoval/internal/evidence"
)

// Category is the triage verdict for one project file.
type Category string

const (
	CategoryThesis       Category = "THESIS_LIKELY"
	CategoryExternal     Category = "EXTERNAL_DATA"
	CategoryArchive      Category = "BOOK_ARCHIVE"
	CategoryUndetermined Category = "UNDETERMINED"
)

// Extension groups used by the rule table. Membership, not meaning: a file
// is only ever classified together with where it sits in the tree.
var (
	dataHeavyExt = newExtSet(".tif", ".tiff", ".zip", ".nc", ".hdf5", ".he5", ".h5",
		".shp", ".shx", ".dbf", ".prj", ".cpg", ".geojson", ".qgz", ".qml",
		".pt", ".pth", ".state", ".gz", ".xml", ".fix", ".exe", ".com")
	codeExt    = newExtSet(".py", ".ipynb", ".js", ".cpp")
	docExt     = newExtSet(".pdf", ".docx", ".md", ".bib", ".txt", ".html")
	tabularExt = newExtSet(".csv", ".parquet", ".xlsx", ".xls")
	mediaExt   = newExtSet(".jpg", ".jpeg", ".png", ".wav", ".mp4")
	otherExt   = newExtSet(".unknown", ".t")
)

func newExtSet(exts ...string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[e] = true
	}
	return set
}

// Entry is one row of the file inventory.
type Entry struct {
	Path      string
	Name      string
	Extension string
	SizeKB    string
}

// Verdict is a classified entry. Reason is free text for manual review.
type Verdict struct {
	Entry
	Category Category
	Reason   string
}

// Classify applies the ordered rule table to a single inventory entry.
// ok is false for entries under .git, which are ignored entirely. Rules are
// checked in order; the first match wins, so specific locations beat
// extension-based fallbacks.
func Classify(pathRel, ext string) (Category, string, bool) {
	p := strings.ToLower(strings.ReplaceAll(pathRel, `\`, "/"))
	e := strings.ToLower(ext)

	switch {
	case strings.HasPrefix(p, ".git/") || strings.Contains(p, "/.git/"):
		return "", "", false
	case p == "readme.md":
		return CategoryThesis, "project README", true
	case strings.HasPrefix(p, "resultados/capitulo_5/"):
		return CategoryThesis, "chapter 5 evidence under resultados/capitulo_5", true
	case strings.Contains(p, "/03_modelagem/resultados_cap5/"):
		return CategoryThesis, "chapter 5 core artifact (modeling tree)", true
	case strings.HasPrefix(p, "scripts/capitulo_5/"):
		return CategoryThesis, "organized chapter 5 script", true
	case strings.Contains(p, "/11_livros/") || strings.Contains(p, "z-lib") || strings.Contains(p, "/dlwpt-code-master/"):
		return CategoryArchive, "third-party book/code/dataset archive", true
	case containsAny(p, "/prisma", "/mapbioma", "/mapbiomas", "/attos"):
		return CategoryExternal, "PRISMA/MapBiomas/ATTOS preprocessing or external data", true
	case containsAny(p, "inventario", "scan_", "excluir_", "criar_subpastas"):
		return CategoryArchive, "generic utility or inventory script", true
	case tabularExt[e]:
		if strings.HasPrefix(p, "resultados/") {
			return CategoryThesis, "tabular result under resultados/", true
		}
		return CategoryExternal, "tabular data outside resultados/ (likely external input)", true
	case dataHeavyExt[e]:
		return CategoryExternal, fmt.Sprintf("heavy/auxiliary data file (%s)", e), true
	case e == "":
		if containsAny(p, "/05_dados_", "/06_resultados/", "/dados_", "/10_shape_", "/03_modelagem/") {
			return CategoryExternal, "extensionless file inside a data/results folder", true
		}
		return CategoryUndetermined, "extensionless file (needs manual review)", true
	case e == ".qmd":
		if strings.HasPrefix(p, "tese/") {
			return CategoryThesis, "writing document under tese/", true
		}
		return CategoryExternal, "qmd outside tese/ (auxiliary report/script)", true
	case codeExt[e]:
		if strings.HasPrefix(p, "scripts/") {
			return CategoryUndetermined, "code under scripts/ outside the core (needs manual review)", true
		}
		return CategoryExternal, "auxiliary code outside the methodological core", true
	case docExt[e]:
		if strings.HasPrefix(p, "tese/") || strings.HasPrefix(p, "resultados/") {
			return CategoryThesis, "document under tese/ or resultados/", true
		}
		return CategoryArchive, "supporting document / archive", true
	case mediaExt[e]:
		return CategoryArchive, "supporting media file", true
	case otherExt[e]:
		return CategoryArchive, "unusual extension (likely supporting archive/dataset)", true
	default:
		return CategoryUndetermined, "residual case (needs manual review)", true
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Summary aggregates one classification pass.
type Summary struct {
	Total   int
	Ignored int
	Counts  map[Category]int
}

// Classifier reads a file inventory and writes a classification table plus
// a count summary. Never moves or touches the inventoried files.
type Classifier struct {
	logger *slog.Logger
	csv    *evidence.CSVWriter
	clock  func() time.Time
}

func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		logger: logger,
		csv:    evidence.NewCSVWriter(logger),
		clock:  time.Now,
	}
}

// Run classifies every entry in the inventory CSV and writes outCSV and
// outSummary. The inventory must carry at least path and extension columns.
func (c *Classifier) Run(inventoryPath, outCSV, outSummary string) (Summary, error) {
	entries, err := readInventory(inventoryPath)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Counts: make(map[Category]int)}
	records := make([][]string, 0, len(entries))
	for _, entry := range entries {
		category, reason, ok := Classify(entry.Path, entry.Extension)
		if !ok {
			summary.Ignored++
			continue
		}
		summary.Total++
		summary.Counts[category]++
		records = append(records, []string{
			entry.Path, entry.Name, entry.Extension, entry.SizeKB,
			string(category), reason,
		})
	}

	headers := []string{"path", "name", "extension", "size_kb", "category", "reason"}
	if err := c.csv.WriteSimpleCSV(outCSV, headers, records); err != nil {
		return Summary{}, err
	}
	if err := c.writeSummary(outSummary, inventoryPath, outCSV, summary); err != nil {
		return Summary{}, err
	}

	c.logger.Info("classification completed",
		slog.Int("total", summary.Total),
		slog.Int("ignored", summary.Ignored),
		slog.String("output", outCSV))
	return summary, nil
}

func (c *Classifier) writeSummary(path, inventoryPath, outCSV string, s Summary) error {
	lines := []string{
		"PRELIMINARY FILE CLASSIFICATION",
		fmt.Sprintf("Timestamp: %s", c.clock().Format("2006-01-02T15:04:05")),
		fmt.Sprintf("Inventory: %s", inventoryPath),
		fmt.Sprintf("Output CSV: %s", outCSV),
		"",
		fmt.Sprintf("Total classified: %d", s.Total),
		fmt.Sprintf("Ignored (.git/*): %d", s.Ignored),
		"",
		"Count per category:",
	}
	for _, category := range []Category{CategoryThesis, CategoryExternal, CategoryArchive, CategoryUndetermined} {
		lines = append(lines, fmt.Sprintf("  %s: %d", category, s.Counts[category]))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewStorageError("failed to create summary directory", err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write summary %s", path), err)
	}
	return nil
}

func readInventory(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(path)
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open inventory %s", path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read inventory header from %s", path), err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := index["path"]; !ok {
		return nil, apperrors.NewParsingError("inventory is missing the path column", nil)
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read inventory row from %s", path), err)
		}
		entries = append(entries, Entry{
			Path:      field(record, "path"),
			Name:      field(record, "name"),
			Extension: field(record, "extension"),
			SizeKB:    field(record, "size_kb"),
		})
	}
	return entries, nil
}
