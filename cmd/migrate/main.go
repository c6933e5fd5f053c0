package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const templateFileName = "template.txt"

var lineRegex = regexp.MustCompile(`^(.*?)-\s*(.*?)-$`)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <normalize-keys|find-duplicates> <submissions-directory>")
	}

	command := os.Args[1]
	root := os.Args[2]

	switch command {
	case "normalize-keys":
		if err := normalizeKeys(root, bufio.NewReader(os.Stdin)); err != nil {
			log.Fatal(err)
		}
	case "find-duplicates":
		if err := findDuplicates(root); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("Unknown command %q", command)
	}
}

// templatePaths returns the template file of every submission directory under root
func templatePaths(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(root, entry.Name(), templateFileName)
		if _, err := os.Stat(path); err != nil {
			log.Printf("No %s in %s, skipping", templateFileName, entry.Name())
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func normalizeKeys(root string, reader *bufio.Reader) error {
	paths, err := templatePaths(root)
	if err != nil {
		return err
	}

	rewritten := 0
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Error reading %s: %v", path, err)
			continue
		}

		normalized, changed := normalizeContent(string(content))
		if changed == 0 {
			continue
		}

		if !confirmRewrite(reader, path, changed) {
			fmt.Printf("  SKIP: %s\n", path)
			continue
		}
		if err := os.WriteFile(path, []byte(normalized), 0644); err != nil {
			log.Printf("Error writing %s: %v", path, err)
			continue
		}
		rewritten++
		fmt.Printf("  REWRITTEN: %s\n", path)
	}

	fmt.Printf("\nRewrote %d template files\n", rewritten)
	return nil
}

// normalizeContent rewrites every field line as "Name - value -" with a
// capitalised name, returning the new content and the number of changed lines.
func normalizeContent(content string) (string, int) {
	lines := strings.Split(content, "\n")
	changed := 0
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		matches := lineRegex.FindStringSubmatch(trimmed)
		if matches == nil {
			continue
		}
		name := strings.TrimSpace(matches[1])
		if name == "" {
			continue
		}
		normalized := fmt.Sprintf("%s - %s -", capitalize(name), strings.TrimSpace(matches[2]))
		if strings.HasSuffix(line, "\r") {
			normalized += "\r"
		}
		if normalized != line {
			lines[i] = normalized
			changed++
		}
	}
	return strings.Join(lines, "\n"), changed
}

func capitalize(name string) string {
	if name == "" {
		return name
	}
	name = strings.ToLower(name)
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + name[size:]
}

// groupByTitle maps each exact title to the submission directories using it,
// in listing order. Titles are compared the way the publisher compares them.
func groupByTitle(root string) (map[string][]string, error) {
	paths, err := templatePaths(root)
	if err != nil {
		return nil, err
	}

	titleToDirs := make(map[string][]string)
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Error reading %s: %v", path, err)
			continue
		}
		title := extractTitle(string(content))
		if title == "" {
			log.Printf("No title in %s, skipping", path)
			continue
		}
		titleToDirs[title] = append(titleToDirs[title], filepath.Dir(path))
	}
	return titleToDirs, nil
}

func findDuplicates(root string) error {
	titleToDirs, err := groupByTitle(root)
	if err != nil {
		return err
	}

	titles := make([]string, 0, len(titleToDirs))
	for title := range titleToDirs {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	groups := 0
	for _, title := range titles {
		dirs := titleToDirs[title]
		if len(dirs) <= 1 {
			continue
		}
		groups++
		fmt.Printf("\nFound %d submissions titled %q:\n", len(dirs), title)
		for i, dir := range dirs {
			if i == 0 {
				fmt.Printf("  PUBLISHED FIRST: %s\n", dir)
				continue
			}
			fmt.Printf("  SKIPPED AS DUPLICATE: %s\n", dir)
		}
	}

	fmt.Printf("\nFound %d duplicate titles\n", groups)
	return nil
}

func extractTitle(content string) string {
	title := ""
	for _, line := range strings.Split(content, "\n") {
		matches := lineRegex.FindStringSubmatch(strings.TrimRight(line, " \t\r"))
		if matches != nil && strings.EqualFold(strings.TrimSpace(matches[1]), "title") {
			title = strings.TrimSpace(matches[2])
		}
	}
	return title
}

func confirmRewrite(reader *bufio.Reader, path string, changed int) bool {
	for {
		fmt.Printf("  REWRITE %d lines in %s? [y/N]: ", changed, path)
		input, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("Error reading input: %v", err)
			return false
		}
		response := strings.ToLower(strings.TrimSpace(input))
		switch response {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		default:
			fmt.Println("  Please enter y or n.")
		}
	}
}
