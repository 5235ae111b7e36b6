package steps

import (
	"context"
	"path"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/internal/logkeys"
	"github.com/askiada/go-refresher/pkg/pipeline"
	"github.com/askiada/go-refresher/pkg/title"
)

type validateTitle struct {
	*pipeline.BaseStep
	gameDir string
}

// ValidateTitle checks the title_id input names a title installed under gameDir.
func ValidateTitle(gameDir string) pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &validateTitle{
			BaseStep: pipeline.NewBaseStep(p, "validate title", TitleIDInput, ContentIDInput),
			gameDir:  gameDir,
		}
	}
}

func (s *validateTitle) Execute(ctx context.Context) error {
	acc, err := runAccessor(s.Pipeline())
	if err != nil {
		return err
	}

	id, _ := s.Pipeline().Input(InputTitleID)
	if !title.ValidID(id) {
		return errors.Wrapf(ErrInvalidTitleID, "%q", id)
	}

	dir := path.Join(s.gameDir, id)
	ok, err := acc.DirectoryExists(dir)
	if err != nil {
		return errors.Wrapf(err, "unable to check %s", dir)
	}
	if !ok {
		return errors.Wrapf(ErrTitleNotFound, "%s in %s", id, s.gameDir)
	}
	s.SetProgress(0.5)

	ok, err = acc.FileExists(EbootPath(&title.Info{Path: dir}))
	if err != nil {
		return errors.Wrap(err, "unable to check executable")
	}
	if !ok {
		return errors.Wrapf(ErrTitleNotFound, "%s has no executable", id)
	}

	contentID, _ := s.Pipeline().Input(InputContentID)
	s.Pipeline().Run().Title = &title.Info{ID: id, Name: id, Path: dir}
	s.Pipeline().Run().Encryption = &title.Encryption{ContentID: contentID}
	s.Logger(ctx).Info(logkeys.Message, "title found", logkeys.TitleID, id, logkeys.Path, dir)
	s.SetProgress(1)

	return nil
}

type listTitles struct {
	*pipeline.BaseStep
	gameDir string
}

// ListTitles lists the titles installed under gameDir. Directories that are not title ids are
// skipped.
func ListTitles(gameDir string) pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &listTitles{BaseStep: pipeline.NewBaseStep(p, "list titles"), gameDir: gameDir}
	}
}

func (s *listTitles) Execute(ctx context.Context) error {
	acc, err := runAccessor(s.Pipeline())
	if err != nil {
		return err
	}

	dirs, err := acc.ListDirectories(s.gameDir)
	if err != nil {
		return errors.Wrapf(err, "unable to list %s", s.gameDir)
	}

	titles := []title.Info{}
	for i, dir := range dirs {
		if err := checkCtx(ctx); err != nil {
			return err
		}
		id := path.Base(dir)
		if title.ValidID(id) {
			titles = append(titles, title.Info{ID: id, Name: id, Path: dir})
		}
		s.SetProgress(float64(i+1) / float64(len(dirs)))
	}

	s.Pipeline().Run().TitleList = titles
	s.Logger(ctx).Info(logkeys.Message, "titles listed", logkeys.GenericCount, len(titles))
	s.SetProgress(1)

	return nil
}
