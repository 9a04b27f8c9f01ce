// Command coursegen builds a course from local files without the HTTP server.
//
//	coursegen -norms ./norms -norm nfc18-510 -out course.json guide.docx notes.txt
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/normmatch"
	"github.com/yungbote/coursegen-backend/internal/normcorpus"
	"github.com/yungbote/coursegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

type options struct {
	normsDir string
	normID   string
	seed     int64
	hasSeed  bool
	out      string
	style    string
	count    int
	noQCM    bool
	files    []string
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("coursegen", flag.ContinueOnError)
	var o options
	fs.StringVar(&o.normsDir, "norms", "norms", "directory of norm corpus files (yaml/json)")
	fs.StringVar(&o.normID, "norm", "", "restrict matching to one norm id")
	fs.Int64Var(&o.seed, "seed", 0, "quiz seed (default: derived from input)")
	fs.StringVar(&o.out, "out", "", "write the result JSON here instead of stdout")
	fs.StringVar(&o.style, "style", string(domain.CourseStyleStructured), "structured, conversational or technical")
	fs.IntVar(&o.count, "questions", 10, "number of quiz questions (5-50)")
	fs.BoolVar(&o.noQCM, "no-qcm", false, "skip the quiz")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			o.hasSeed = true
		}
	})
	o.files = fs.Args()
	if len(o.files) == 0 {
		return o, fmt.Errorf("at least one input file is required")
	}
	return o, nil
}

func run(ctx context.Context, o options, log *logger.Logger) (*domain.GenerationResult, error) {
	reg := normcorpus.Empty()
	if o.normsDir != "" {
		r, err := normcorpus.LoadDir(o.normsDir)
		if err != nil {
			return nil, err
		}
		reg = r
	}

	svc, err := coursegen.NewService(coursegen.ServiceDeps{
		Log:       log,
		Generator: coursegen.NewGenerator(normmatch.New(reg)),
	})
	if err != nil {
		return nil, err
	}

	files := make([]coursegen.UploadedFile, 0, len(o.files))
	for _, path := range o.files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, coursegen.UploadedFile{Name: filepath.Base(path), Data: data})
	}

	settings := domain.DefaultGenerationSettings()
	settings.CourseStyle = domain.ParseCourseStyle(o.style)
	settings.QCMQuestionCount = o.count
	settings.IncludeQCM = !o.noQCM

	in := coursegen.GenerateInput{
		Files:        files,
		Settings:     settings,
		ActiveNormID: o.normID,
	}
	if o.hasSeed {
		seed := o.seed
		in.Seed = &seed
	}
	ctx, _ = ctxutil.EnsureTraceData(ctx, ctxutil.OriginCLI)
	return svc.Generate(ctx, in)
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "coursegen:", err)
		os.Exit(2)
	}
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "coursegen: init logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	res, err := run(context.Background(), o, log)
	if err != nil {
		log.Error("generation failed", "error", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		log.Error("encode result failed", "error", err)
		os.Exit(1)
	}
	if o.out == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(o.out, append(data, '\n'), 0o644); err != nil {
		log.Error("write result failed", "error", err, "path", o.out)
		os.Exit(1)
	}
}
