// seed_sifen genera scripts SQL para poblar las tablas paramétricas geográficas
// SIFEN (departamentos y distritos) a partir del XML oficial de referencia
// geográfica de la SET.
//
// Uso: go run ./cmd/seed_sifen [ruta/geografia.xml]
// Por defecto busca geografia.xml en el directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/003_seed_geografia.sql
package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type referencia struct {
	Items []item `xml:"item"`
}

type item struct {
	CDis string `xml:"cDis"` // código de distrito
	DDis string `xml:"dDis"` // descripción de distrito
	CDep string `xml:"cDep"` // código de departamento
	DDep string `xml:"dDep"` // descripción de departamento
}

func main() {
	xmlPath := "geografia.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var ref referencia
	dec := xml.NewDecoder(f)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&ref); err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
		os.Exit(1)
	}

	// Departamentos únicos: (código, descripción)
	deptMap := make(map[string]string)
	var distritos []struct{ cod, nombre, deptCode string }
	for _, it := range ref.Items {
		if it.CDis == "" || it.DDis == "" || it.CDep == "" || it.DDep == "" {
			continue
		}
		deptMap[it.CDep] = strings.TrimSpace(it.DDep)
		distritos = append(distritos, struct{ cod, nombre, deptCode string }{
			cod:      strings.TrimSpace(it.CDis),
			nombre:   strings.TrimSpace(it.DDis),
			deptCode: strings.TrimSpace(it.CDep),
		})
	}

	// Ordenar departamentos por código para salida estable
	var deptCodes []string
	for c := range deptMap {
		deptCodes = append(deptCodes, c)
	}
	sort.Strings(deptCodes)

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "003_seed_geografia.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- Departamentos y distritos de Paraguay (códigos SET)\n")
	out.WriteString("-- Generado desde el XML de referencia geográfica SIFEN\n\n")

	out.WriteString("-- 1. Departamentos\n")
	out.WriteString("INSERT INTO geo_departamentos (codigo, nombre) VALUES\n")
	for i, c := range deptCodes {
		name := escapeSQL(deptMap[c])
		if i < len(deptCodes)-1 {
			fmt.Fprintf(out, "  ('%s', '%s'),\n", c, name)
		} else {
			fmt.Fprintf(out, "  ('%s', '%s')\n", c, name)
		}
	}
	out.WriteString("ON CONFLICT (codigo) DO UPDATE SET nombre = EXCLUDED.nombre;\n\n")

	out.WriteString("-- 2. Distritos con subquery al departamento\n")
	for _, d := range distritos {
		name := escapeSQL(d.nombre)
		fmt.Fprintf(out, "INSERT INTO geo_distritos (departamento_id, codigo, nombre)\n")
		fmt.Fprintf(out, "SELECT id, '%s', '%s' FROM geo_departamentos WHERE codigo = '%s'\n",
			d.cod, name, d.deptCode)
		out.WriteString("ON CONFLICT (codigo) DO UPDATE SET nombre = EXCLUDED.nombre;\n")
	}

	fmt.Printf("Generado %s: %d departamentos, %d distritos\n", outPath, len(deptCodes), len(distritos))
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
