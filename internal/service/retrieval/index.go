package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/docchat/internal/embeddings"
)

// DefaultChunkSize is the target chunk length in characters.
const DefaultChunkSize = 800

const embedConcurrency = 4

// Chunk is a searchable slice of a document.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
}

// Match is a chunk with its cosine similarity to the query.
type Match struct {
	Chunk
	Score float64
}

// Index keeps one chromem collection per workspace.
type Index struct {
	mu          sync.Mutex
	db          *chromem.DB
	embedder    embeddings.Embedder
	embed       chromem.EmbeddingFunc
	chunkSize   int
	minScore    float64
	collections map[string]*chromem.Collection
}

type Option func(*Index)

// WithEmbedder replaces the default lexical embedder.
func WithEmbedder(e embeddings.Embedder) Option {
	return func(idx *Index) {
		if e != nil {
			idx.embedder = e
		}
	}
}

// WithChunkSize sets the target chunk length. Non-positive values are ignored.
func WithChunkSize(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			idx.chunkSize = n
		}
	}
}

// WithMinScore drops matches whose similarity is not above score.
func WithMinScore(score float64) Option {
	return func(idx *Index) {
		idx.minScore = score
	}
}

// NewIndex creates an empty in-memory index.
func NewIndex(opts ...Option) *Index {
	idx := &Index{
		db:          chromem.NewDB(),
		embedder:    embeddings.NewLexicalEmbedder(0),
		chunkSize:   DefaultChunkSize,
		collections: make(map[string]*chromem.Collection),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.embed = embeddings.ToChromemFunc(idx.embedder)
	return idx
}

// EmbedderName names the model that produces the index vectors.
func (idx *Index) EmbedderName() string {
	return idx.embedder.Name()
}

func (idx *Index) collection(workspaceID string, create bool) (*chromem.Collection, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if col, ok := idx.collections[workspaceID]; ok {
		return col, nil
	}
	if !create {
		return nil, nil
	}

	col, err := idx.db.GetOrCreateCollection(workspaceID, nil, idx.embed)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", workspaceID, err)
	}
	idx.collections[workspaceID] = col
	return col, nil
}

// AddDocument chunks and embeds text into the workspace's collection. It
// returns the number of chunks added.
func (idx *Index) AddDocument(ctx context.Context, workspaceID, documentID, text string) (int, error) {
	pieces := splitChunks(text, idx.chunkSize)
	if len(pieces) == 0 {
		return 0, nil
	}

	col, err := idx.collection(workspaceID, true)
	if err != nil {
		return 0, err
	}

	docs := make([]chromem.Document, len(pieces))
	for i, piece := range pieces {
		docs[i] = chromem.Document{
			ID:      uuid.NewString(),
			Content: piece,
			Metadata: map[string]string{
				"document_id": documentID,
				"chunk_index": strconv.Itoa(i),
			},
		}
	}

	if err := col.AddDocuments(ctx, docs, embedConcurrency); err != nil {
		return 0, fmt.Errorf("index document %s/%s: %w", workspaceID, documentID, err)
	}
	return len(pieces), nil
}

// Workspaces lists the workspace ids that have at least one chunk.
func (idx *Index) Workspaces() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	ids := make([]string, 0, len(idx.collections))
	for id, col := range idx.collections {
		if col.Count() > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ChunkCount reports how many chunks a workspace holds.
func (idx *Index) ChunkCount(workspaceID string) int {
	col, _ := idx.collection(workspaceID, false)
	if col == nil {
		return 0
	}
	return col.Count()
}

// Search returns up to topK chunks of the workspace most similar to query,
// best first. Chunks scoring at or below the minimum score are dropped.
func (idx *Index) Search(ctx context.Context, workspaceID, query string, topK int) ([]Match, error) {
	if strings.TrimSpace(query) == "" || topK <= 0 {
		return nil, nil
	}

	col, _ := idx.collection(workspaceID, false)
	if col == nil {
		return nil, nil
	}

	// chromem rejects nResults above the collection size.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	topK = min(topK, count)

	results, err := col.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("search workspace %s: %w", workspaceID, err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		score := float64(r.Similarity)
		if score <= idx.minScore {
			continue
		}
		chunkIndex, _ := strconv.Atoi(r.Metadata["chunk_index"])
		matches = append(matches, Match{
			Chunk: Chunk{
				DocumentID: r.Metadata["document_id"],
				Index:      chunkIndex,
				Text:       r.Content,
			},
			Score: score,
		})
	}
	return matches, nil
}

// LoadDir indexes dir/<workspaceID>/*.md and *.txt. Each subdirectory is a
// workspace; the returned ids are the subdirectories that were read.
func (idx *Index) LoadDir(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read docs dir %s: %w", dir, err)
	}

	var workspaces []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		workspaceID := entry.Name()
		files, err := os.ReadDir(filepath.Join(dir, workspaceID))
		if err != nil {
			return workspaces, fmt.Errorf("read workspace dir %s: %w", workspaceID, err)
		}

		total := 0
		for _, file := range files {
			ext := strings.ToLower(filepath.Ext(file.Name()))
			if file.IsDir() || (ext != ".md" && ext != ".txt") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, workspaceID, file.Name()))
			if err != nil {
				return workspaces, fmt.Errorf("read document %s/%s: %w", workspaceID, file.Name(), err)
			}
			n, err := idx.AddDocument(ctx, workspaceID, file.Name(), string(data))
			if err != nil {
				return workspaces, err
			}
			total += n
		}

		log.Info().
			Str("workspace", workspaceID).
			Int("chunks", total).
			Str("embedder", idx.embedder.Name()).
			Msg("indexed workspace documents")
		workspaces = append(workspaces, workspaceID)
	}
	return workspaces, nil
}

// splitChunks packs blank-line separated paragraphs into chunks of at most
// size characters. Oversized paragraphs are cut on rune boundaries.
func splitChunks(text string, size int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		runes := []rune(paragraph)
		if len(runes) > size {
			flush()
			for start := 0; start < len(runes); start += size {
				end := min(start+size, len(runes))
				current.WriteString(string(runes[start:end]))
				flush()
			}
			continue
		}

		if current.Len() > 0 && len([]rune(current.String()))+2+len(runes) > size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	flush()
	return chunks
}
