package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v2"
)

// FormatType формат вывода
type FormatType string

const (
	FormatTable FormatType = "table"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// Formats допустимые форматы
var Formats = []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}

// Formatter форматирует данные для вывода
type Formatter interface {
	Format(data interface{}) (string, error)
}

// Tabular данные, которые умеют представить себя таблицей.
// Для json и yaml выводится Raw.
type Tabular interface {
	Table() *TableData
	Raw() interface{}
}

// TableData данные таблицы
type TableData struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTableData создает таблицу с заголовками
func NewTableData(headers ...string) *TableData {
	return &TableData{Headers: headers}
}

// AddRow добавляет строку
func (td *TableData) AddRow(cells ...string) {
	td.Rows = append(td.Rows, cells)
}

// String выравнивает колонки через tabwriter
func (td *TableData) String() string {
	var b strings.Builder
	if td.Title != "" {
		b.WriteString(td.Title + "\n")
	}
	if len(td.Rows) == 0 {
		b.WriteString("Нет данных\n")
		return b.String()
	}

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	if len(td.Headers) > 0 {
		fmt.Fprintln(w, strings.Join(td.Headers, "\t"))
		separators := make([]string, len(td.Headers))
		for i, h := range td.Headers {
			separators[i] = strings.Repeat("-", len([]rune(h)))
		}
		fmt.Fprintln(w, strings.Join(separators, "\t"))
	}
	for _, row := range td.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
	return b.String()
}

// TableFormatter табличный вывод
type TableFormatter struct{}

func (f *TableFormatter) Format(data interface{}) (string, error) {
	switch v := data.(type) {
	case Tabular:
		return v.Table().String(), nil
	case *TableData:
		return v.String(), nil
	case string:
		return v + "\n", nil
	default:
		return fmt.Sprintf("%v\n", v), nil
	}
}

// JSONFormatter вывод в JSON
type JSONFormatter struct {
	Pretty bool
}

func (f *JSONFormatter) Format(data interface{}) (string, error) {
	if t, ok := data.(Tabular); ok {
		data = t.Raw()
	}

	var out []byte
	var err error
	if f.Pretty {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return "", fmt.Errorf("ошибка кодирования JSON: %w", err)
	}
	return string(out) + "\n", nil
}

// YAMLFormatter вывод в YAML.
// Данные проходят через JSON, чтобы ключи совпадали с json тегами.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data interface{}) (string, error) {
	if t, ok := data.(Tabular); ok {
		data = t.Raw()
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ошибка кодирования YAML: %w", err)
	}
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("ошибка кодирования YAML: %w", err)
	}

	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("ошибка кодирования YAML: %w", err)
	}
	return string(out), nil
}

// GetFormatter возвращает форматировщик; неизвестный формат дает таблицу
func GetFormatter(format FormatType) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// Printer пишет отформатированные данные в w
type Printer struct {
	w         io.Writer
	formatter Formatter
}

// NewPrinter создает вывод в w в формате format
func NewPrinter(w io.Writer, format FormatType) *Printer {
	return &Printer{w: w, formatter: GetFormatter(format)}
}

// Print форматирует и выводит данные
func (p *Printer) Print(data interface{}) error {
	out, err := p.formatter.Format(data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(p.w, out)
	return err
}

// Line выводит строку текста без форматирования
func (p *Printer) Line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}
