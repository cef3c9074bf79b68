package augment

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/mdxfix/internal/apperr"
	"github.com/starford/mdxfix/internal/author"
	"github.com/starford/mdxfix/internal/faq"
	"github.com/starford/mdxfix/internal/models"
	"github.com/starford/mdxfix/internal/report"
	"github.com/starford/mdxfix/internal/testutil"
)

const (
	themeDoc   = "---\ntitle: \"Acme Theme\"\ncategory: [\"themes\"]\n---\n# Acme\n"
	hostingDoc = "---\ntitle: \"Fast Host\"\ncategory: [\"hosting\", \"seo\"]\n---\nBody\n"
	faqDoc     = "---\ntitle: \"Done\"\nfaq:\n  - q: \"a\"\n    a: \"b\"\n---\n"
	noTitleDoc = "---\ncategory: [\"seo\"]\n---\n"
	brokenDoc  = "---\ntitle: \"Broken\"\nno closing delimiter\n"
)

func TestProcess_FAQScenarios(t *testing.T) {
	root, store := testutil.TestContent(t)
	testutil.WriteDoc(t, root, "res/acme.mdx", themeDoc)
	testutil.WriteDoc(t, root, "res/host.mdx", hostingDoc)
	testutil.WriteDoc(t, root, "res/done.mdx", faqDoc)
	testutil.WriteDoc(t, root, "res/notitle.mdx", noTitleDoc)
	testutil.WriteDoc(t, root, "res/broken.mdx", brokenDoc)

	var out bytes.Buffer
	svc := NewService(store, testutil.Logger(), WithReporter(report.New(&out, report.PlainStyles())))
	paths, err := svc.Collect([]Target{{Dir: "res", Pattern: "*.mdx"}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	s, err := svc.Process(context.Background(), faq.NewInjector(nil), paths)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if s.Total != 5 || s.Updated != 2 || s.Skipped != 1 || s.Warned != 2 {
		t.Errorf("summary = %+v", s)
	}

	acme := testutil.ReadDoc(t, root, "res/acme.mdx")
	if n := strings.Count(acme, "  - q: "); n != 8 {
		t.Errorf("acme entries = %d, want 8", n)
	}
	host := testutil.ReadDoc(t, root, "res/host.mdx")
	if n := strings.Count(host, "  - q: "); n != 11 {
		t.Errorf("host entries = %d, want 11", n)
	}
	if strings.Index(host, "uptime guarantee") > strings.Index(host, "schema markup") {
		t.Error("hosting entries must precede seo entries")
	}
	if got := testutil.ReadDoc(t, root, "res/done.mdx"); got != faqDoc {
		t.Error("document with existing FAQ was modified")
	}
	if got := testutil.ReadDoc(t, root, "res/broken.mdx"); got != brokenDoc {
		t.Error("malformed document was modified")
	}
	if !strings.Contains(out.String(), "Successfully added FAQs to 2/5 files") {
		t.Errorf("summary line missing:\n%s", out.String())
	}
}

func TestProcess_FAQIdempotent(t *testing.T) {
	root, store := testutil.TestContent(t)
	testutil.WriteDoc(t, root, "a.mdx", themeDoc)
	svc := NewService(store, testutil.Logger())
	op := faq.NewInjector(nil)

	if _, err := svc.Process(context.Background(), op, []string{"a.mdx"}); err != nil {
		t.Fatal(err)
	}
	once := testutil.ReadDoc(t, root, "a.mdx")
	s, err := svc.Process(context.Background(), op, []string{"a.mdx"})
	if err != nil {
		t.Fatal(err)
	}
	if s.Skipped != 1 {
		t.Errorf("second pass summary = %+v", s)
	}
	if testutil.ReadDoc(t, root, "a.mdx") != once {
		t.Error("second pass changed the document")
	}
}

func TestProcess_AuthorScenarios(t *testing.T) {
	root, store := testutil.TestContent(t)
	testutil.WriteDoc(t, root, "blog/post.md", "---\ntitle: \"P\"\nauthor: \"Jane Doe\"\n---\nText\n")
	testutil.WriteDoc(t, root, "guides/g.mdx", "---\nmetadata: { title: \"X\" }\n---\n")
	testutil.WriteDoc(t, root, "guides/none.mdx", "---\ntitle: \"N\"\nunterminated\n")

	svc := NewService(store, testutil.Logger())
	paths, err := svc.Collect([]Target{
		{Dir: "blog", Pattern: "*.md*", Recursive: true},
		{Dir: "guides", Pattern: "*.md*", Recursive: true},
		{Dir: "missing", Pattern: "*.md*", Recursive: true, SkipMissing: true},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	op := author.NewRewriter("Daniel Snell")
	s, err := svc.Process(context.Background(), op, paths)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if s.Updated != 2 || s.Warned != 1 {
		t.Errorf("summary = %+v", s)
	}
	if got := testutil.ReadDoc(t, root, "blog/post.md"); got != "---\ntitle: \"P\"\nauthor: \"Daniel Snell\"\n---\nText\n" {
		t.Errorf("post = %q", got)
	}
	if got := testutil.ReadDoc(t, root, "guides/g.mdx"); got != "---\nmetadata: { title: \"X\"\n  author: \"Daniel Snell\" }\n---\n" {
		t.Errorf("metadata doc = %q", got)
	}
	if got := testutil.ReadDoc(t, root, "guides/none.mdx"); got != "---\ntitle: \"N\"\nunterminated\n" {
		t.Error("document without insertion point was modified")
	}

	// Second pass is a no-op.
	again, err := svc.Process(context.Background(), op, paths)
	if err != nil {
		t.Fatal(err)
	}
	if again.Updated != 0 || again.Skipped != 2 {
		t.Errorf("second pass summary = %+v", again)
	}
}

func TestCollect_MissingDirFatal(t *testing.T) {
	_, store := testutil.TestContent(t)
	svc := NewService(store, testutil.Logger())
	_, err := svc.Collect([]Target{{Dir: "nope", Pattern: "*.mdx"}})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestCollect_Deduplicates(t *testing.T) {
	root, store := testutil.TestContent(t)
	testutil.WriteDoc(t, root, "a/x.md", "x")
	svc := NewService(store, testutil.Logger())
	paths, err := svc.Collect([]Target{
		{Dir: "a", Pattern: "*.md"},
		{Dir: "", Pattern: "*.md", Recursive: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != filepath.Join("a", "x.md") {
		t.Errorf("paths = %v", paths)
	}
}

func TestProcess_DryRun(t *testing.T) {
	root, store := testutil.TestContent(t)
	testutil.WriteDoc(t, root, "a.mdx", themeDoc)
	svc := NewService(store, testutil.Logger(), WithDryRun(true))
	s, err := svc.Process(context.Background(), faq.NewInjector(nil), []string{"a.mdx"})
	if err != nil {
		t.Fatal(err)
	}
	if s.Updated != 1 || !s.Results[0].DryRun {
		t.Errorf("summary = %+v", s)
	}
	if testutil.ReadDoc(t, root, "a.mdx") != themeDoc {
		t.Error("dry run wrote the document")
	}
}

func TestProcess_Journaled(t *testing.T) {
	root, store := testutil.TestContent(t)
	testutil.WriteDoc(t, root, "a.mdx", themeDoc)
	testutil.WriteDoc(t, root, "b.mdx", noTitleDoc)
	db := testutil.TestJournal(t)
	svc := NewService(store, testutil.Logger(), WithRecorder(db))

	s, err := svc.Process(context.Background(), faq.NewInjector(nil), []string{"a.mdx", "b.mdx"})
	if err != nil {
		t.Fatal(err)
	}
	if s.RunID == "" {
		t.Fatal("run id not set")
	}
	outs, err := db.Outcomes(s.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 2 || outs[0].Status != models.StatusUpdated || outs[1].Status != models.StatusWarning {
		t.Errorf("outcomes = %+v", outs)
	}
	if outs[0].ChecksumBefore == outs[0].ChecksumAfter {
		t.Error("updated document should change checksum")
	}
	runs, _ := db.Runs(1)
	if len(runs) != 1 || runs[0].Total != 2 || runs[0].Updated != 1 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestProcess_ParallelMatchesSequential(t *testing.T) {
	docs := map[string]string{
		"a.mdx": themeDoc,
		"b.mdx": hostingDoc,
		"c.mdx": faqDoc,
		"d.mdx": noTitleDoc,
		"e.mdx": brokenDoc,
	}
	run := func(jobs int) map[string]string {
		root, store := testutil.TestContent(t)
		var paths []string
		for p, c := range docs {
			testutil.WriteDoc(t, root, p, c)
			paths = append(paths, p)
		}
		svc := NewService(store, testutil.Logger(), WithJobs(jobs))
		s, err := svc.Process(context.Background(), faq.NewInjector(nil), paths)
		if err != nil {
			t.Fatal(err)
		}
		if s.Total != len(docs) {
			t.Errorf("jobs=%d total = %d", jobs, s.Total)
		}
		out := make(map[string]string)
		for p := range docs {
			out[p] = testutil.ReadDoc(t, root, p)
		}
		return out
	}
	seq, par := run(1), run(4)
	for p := range docs {
		if seq[p] != par[p] {
			t.Errorf("%s differs between sequential and parallel runs", p)
		}
	}
}

func TestProcess_ReadErrorIsFatal(t *testing.T) {
	root, store := testutil.TestContent(t)
	testutil.WriteDoc(t, root, "a.mdx", themeDoc)
	svc := NewService(store, testutil.Logger())
	s, err := svc.Process(context.Background(), faq.NewInjector(nil), []string{"a.mdx", "gone.mdx", "a.mdx"})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
	if s.Total != 1 {
		t.Errorf("processing should stop at the failure, total = %d", s.Total)
	}
}

func TestProcess_Cancelled(t *testing.T) {
	root, store := testutil.TestContent(t)
	testutil.WriteDoc(t, root, "a.mdx", themeDoc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewService(store, testutil.Logger())
	if _, err := svc.Process(ctx, faq.NewInjector(nil), []string{"a.mdx"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if testutil.ReadDoc(t, root, "a.mdx") != themeDoc {
		t.Error("cancelled run wrote the document")
	}
}

// slowOp records how many Apply calls overlap per path.
type slowOp struct {
	mu      sync.Mutex
	active  map[string]int
	overlap atomic.Bool
}

func (o *slowOp) Name() string { return "slow" }

func (o *slowOp) Apply(path string, data []byte) ([]byte, error) {
	o.mu.Lock()
	o.active[path]++
	if o.active[path] > 1 {
		o.overlap.Store(true)
	}
	o.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	o.mu.Lock()
	o.active[path]--
	o.mu.Unlock()
	return nil, apperr.ErrAlreadyPresent
}

func TestProcess_PerPathExclusivity(t *testing.T) {
	root, store := testutil.TestContent(t)
	testutil.WriteDoc(t, root, "same.md", "x")
	op := &slowOp{active: make(map[string]int)}
	svc := NewService(store, testutil.Logger(), WithJobs(8))

	paths := make([]string, 16)
	for i := range paths {
		paths[i] = "same.md"
	}
	s, err := svc.Process(context.Background(), op, paths)
	if err != nil {
		t.Fatal(err)
	}
	if s.Skipped != 16 {
		t.Errorf("summary = %+v", s)
	}
	if op.overlap.Load() {
		t.Error("two goroutines operated on the same path concurrently")
	}
}
