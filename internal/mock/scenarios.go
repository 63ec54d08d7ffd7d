package scenarios

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
)

// ArticleCount is the number of articles listed by the mock site.
const ArticleCount = 3

// NewHandler serves a small site: a listing at /articles linking to
// /articles/{id}, the same articles as JSON under /api/articles/{id},
// a form endpoint at /search and a large page at /largehtml.
func NewHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		GenerateHomePage(w)
	})
	mux.HandleFunc("GET /articles", func(w http.ResponseWriter, r *http.Request) {
		GenerateListingPage(w)
	})
	mux.HandleFunc("GET /articles/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || id < 1 || id > ArticleCount {
			http.NotFound(w, r)
			return
		}
		GenerateArticlePage(w, id)
	})
	mux.HandleFunc("GET /api/articles/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || id < 1 || id > ArticleCount {
			http.NotFound(w, r)
			return
		}
		GenerateArticleJSON(w, id)
	})
	mux.HandleFunc("POST /search", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		GenerateSearchResult(w, r.PostForm.Get("q"))
	})
	mux.HandleFunc("GET /largehtml", func(w http.ResponseWriter, r *http.Request) {
		GenerateLargeHTML(w)
	})
	return mux
}

func GenerateHomePage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, "<html><body>Welcome to the Mock Server <a href='/articles'>articles</a></body></html>")
}

func GenerateListingPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><head><title>Articles</title></head><body><ul>\n")
	for i := 1; i <= ArticleCount; i++ {
		fmt.Fprintf(w, "<li><a class='article' href='/articles/%d'>Article %d</a></li>\n", i, i)
	}
	fmt.Fprintf(w, "</ul></body></html>\n")
}

func GenerateArticlePage(w http.ResponseWriter, id int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><head><title>Article %d</title></head><body>", id)
	fmt.Fprintf(w, "<h1 class='title'>Article %d</h1>", id)
	fmt.Fprintf(w, "<span class='author'>Author %d</span>", id)
	fmt.Fprintf(w, "<p>Paragraph %d</p>", id)
	fmt.Fprintf(w, "</body></html>")
}

func GenerateArticleJSON(w http.ResponseWriter, id int) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"title":  fmt.Sprintf("Article %d", id),
		"author": map[string]string{"name": fmt.Sprintf("Author %d", id)},
		"id":     id,
	})
}

func GenerateSearchResult(w http.ResponseWriter, query string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"query":   query,
		"results": ArticleCount,
	})
}

func GenerateLargeHTML(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, "<html><head><title>Large HTML</title></head><body>\n")

	for i := 1; i <= 40000; i++ {
		switch rand.Intn(5) {
		case 0:
			fmt.Fprintf(w, "<h1>Header %d</h1>\n", i)
		case 1:
			fmt.Fprintf(w, "<p>Paragraph %d</p>\n", i)
		case 2:
			fmt.Fprintf(w, "<a href='http://example.com/%d'>Link %d</a>\n", i, i)
		case 3:
			fmt.Fprintf(w, "<ul><li>List Item %d</li></ul>\n", i)
		case 4:
			fmt.Fprintf(w, "<div>Div %d</div>\n", i)
		}
	}

	fmt.Fprintf(w, "</body></html>\n")
}
