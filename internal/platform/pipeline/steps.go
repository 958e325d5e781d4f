package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/media"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"
	"Fpublisher/internal/utils/poll"
)

// BuildSteps 按固定顺序由平台声明生成步骤
func BuildSteps(spec *Spec) []Step {
	steps := []Step{
		{Name: StepUploadVideo, Required: true, Action: uploadVideo(spec)},
		{Name: StepWaitReady, Required: true, Action: waitReady(spec)},
	}
	if spec.Title != nil {
		steps = append(steps, Step{Name: StepTitle, Action: fillTitle(spec)})
	}
	if spec.Description != nil {
		steps = append(steps, Step{Name: StepDescription, Action: fillDescription(spec)})
	}
	if spec.Tags != nil && spec.Tags.Mode != TagsInDescription {
		steps = append(steps, Step{Name: StepTags, Action: fillTags(spec)})
	}
	if spec.Cover != nil {
		steps = append(steps, Step{Name: StepCover, Action: uploadImage(spec, StepCover, spec.Cover,
			func(p *types.ContentPayload) *types.MediaRef { return p.Cover })})
	}
	if spec.VerticalCover != nil {
		steps = append(steps, Step{Name: StepVerticalCover, Action: uploadImage(spec, StepVerticalCover, spec.VerticalCover,
			func(p *types.ContentPayload) *types.MediaRef { return p.VerticalCover })})
	}
	if spec.FocusImage != nil {
		steps = append(steps, Step{Name: StepFocusImage, Action: uploadImage(spec, StepFocusImage, spec.FocusImage,
			func(p *types.ContentPayload) *types.MediaRef { return p.FocusImage })})
	}
	if spec.Original != nil {
		steps = append(steps, Step{Name: StepDeclareOriginal, Action: declareOriginal(spec)})
	}
	if spec.Schedule != nil {
		steps = append(steps, Step{Name: StepSchedule, Action: schedule(spec)})
	}
	steps = append(steps, Step{
		Name:     StepSubmit,
		Required: true,
		When:     func(p *types.ContentPayload) bool { return p.AutoPublish },
		Action:   submit(spec),
	})
	return steps
}

func uploadVideo(spec *Spec) func(context.Context, *Run) Outcome {
	return func(ctx context.Context, run *Run) Outcome {
		if run.Payload.Video == nil {
			return Fail(types.NewMissingInputError(StepUploadVideo, errors.New("缺少视频")))
		}
		file, err := run.Media.Resolve(ctx, run.Payload.Video, media.KindVideo)
		if err != nil {
			return Fail(err)
		}
		if err := runClicks(ctx, run, spec.Video.Open); err != nil {
			return Fail(err)
		}
		m, err := dom.AwaitLocate(ctx, run.Page, spec.Video.Wait, spec.Video.Input...)
		if err != nil {
			return Fail(err)
		}
		if err := dom.Inject(run.Page, m.Selector, file); err != nil {
			return Fail(types.NewElementNotFoundError(StepUploadVideo, err))
		}
		return SuccessWith(fmt.Sprintf("%s (%d bytes)", file.Name, file.Size()))
	}
}

func waitReady(spec *Spec) func(context.Context, *Run) Outcome {
	return func(ctx context.Context, run *Run) Outcome {
		ready := spec.Ready
		ok, err := poll.Await(ctx, ready.Wait.Condition(func() bool {
			dismiss(run, spec.Dismiss)
			if ready.URLContains != "" && !strings.Contains(run.Page.URL(), ready.URLContains) {
				return false
			}
			return len(ready.Any) == 0 || dom.Exists(run.Page, ready.Any...)
		}))
		if err != nil {
			return Fail(types.NewCancelledError(StepWaitReady, err))
		}
		if !ok {
			return Fail(types.NewUploadTimeoutError(StepWaitReady, fmt.Errorf("%s 内未就绪", ready.Wait.Duration())))
		}
		return Success()
	}
}

func fillTitle(spec *Spec) func(context.Context, *Run) Outcome {
	return func(ctx context.Context, run *Run) Outcome {
		title := strings.TrimSpace(run.Payload.Title)
		if title == "" {
			return Skip("no title")
		}
		return writeField(ctx, run, StepTitle, spec.Title, truncateRunes(title, spec.Title.MaxLen))
	}
}

func fillDescription(spec *Spec) func(context.Context, *Run) Outcome {
	return func(ctx context.Context, run *Run) Outcome {
		text := strings.TrimSpace(run.Payload.Description)
		if spec.tagsInDescription() {
			if tags := CleanTags(run.Payload.Tags, spec.maxTags()); len(tags) > 0 {
				text = strings.TrimSpace(text + " " + Hashtags(tags))
			}
		}
		if text == "" {
			return Skip("no description")
		}
		return writeField(ctx, run, StepDescription, spec.Description, truncateRunes(text, spec.Description.MaxLen))
	}
}

// writeField 写入文本字段，DOM 元素找不到时尝试框架数据
func writeField(ctx context.Context, run *Run, name string, f *FieldSpec, text string) Outcome {
	if err := runClicks(ctx, run, f.Open); err != nil {
		return Fail(err)
	}
	m, err := dom.AwaitLocate(ctx, run.Page, f.Wait, f.Target...)
	if err != nil {
		if f.Hook == nil || types.KindOf(err) == types.KindCancelled {
			return Fail(err)
		}
		if hookErr := dom.WriteHook(run.Page, *f.Hook, text); hookErr != nil {
			return Fail(types.NewElementNotFoundError(name, errors.Join(err, hookErr)))
		}
		return SuccessWith("hook")
	}
	if err := dom.Write(run.Page, m.Selector, f.Mode, text); err != nil {
		return Fail(types.NewElementNotFoundError(name, err))
	}
	return Success()
}

func fillTags(spec *Spec) func(context.Context, *Run) Outcome {
	return func(ctx context.Context, run *Run) Outcome {
		tags := CleanTags(run.Payload.Tags, spec.maxTags())
		if len(tags) == 0 {
			return Skip("no tags")
		}
		t := spec.Tags

		if t.Mode == TagsHook {
			return mergeHookTags(ctx, run, t, tags, spec.maxTags())
		}

		if err := runClicks(ctx, run, t.Open); err != nil {
			return Fail(err)
		}

		if t.Mode == TagsJoined {
			sep := t.Separator
			if sep == "" {
				sep = " "
			}
			m, err := dom.AwaitLocate(ctx, run.Page, t.Wait, t.Input...)
			if err != nil {
				return Fail(err)
			}
			if err := dom.Write(run.Page, m.Selector, t.InputMode, strings.Join(tags, sep)); err != nil {
				return Fail(types.NewElementNotFoundError(StepTags, err))
			}
			if t.PressEnter {
				if err := run.Page.Press(m.Selector, "Enter"); err != nil {
					return Fail(types.NewElementNotFoundError(StepTags, err))
				}
			}
			return SuccessWith(fmt.Sprintf("%d tags", len(tags)))
		}

		added := 0
		for _, tag := range tags {
			m, err := dom.AwaitLocate(ctx, run.Page, t.Wait, t.Input...)
			if err != nil {
				return Fail(err)
			}
			if err := dom.Write(run.Page, m.Selector, t.InputMode, tag); err != nil {
				return Fail(types.NewElementNotFoundError(StepTags, err))
			}
			if t.PressEnter {
				if err := run.Page.Press(m.Selector, "Enter"); err != nil {
					utils.WarnWithPlatform(run.Platform, fmt.Sprintf("标签回车失败: %s: %v", tag, err))
				}
			}
			if t.Suggestion == nil {
				added++
				continue
			}
			s, err := dom.AwaitLocate(ctx, run.Page, t.SuggestionWait, t.Suggestion(tag)...)
			if err != nil {
				if types.KindOf(err) == types.KindCancelled {
					return Fail(err)
				}
				utils.WarnWithPlatform(run.Platform, fmt.Sprintf("未找到标签联想项: %s", tag))
				continue
			}
			if err := run.Page.Click(s.Selector); err != nil {
				utils.WarnWithPlatform(run.Platform, fmt.Sprintf("点击标签联想项失败: %s: %v", tag, err))
				continue
			}
			added++
		}
		return SuccessWith(fmt.Sprintf("%d/%d tags", added, len(tags)))
	}
}

func mergeHookTags(ctx context.Context, run *Run, t *TagSpec, tags []string, max int) Outcome {
	if t.Hook == nil {
		return Fail(types.NewElementNotFoundError(StepTags, errors.New("未配置标签数据位置")))
	}

	// 组件挂载较晚，等到能读到列表为止
	var current any
	var readErr error
	ok, err := poll.Await(ctx, t.Wait.Condition(func() bool {
		current, readErr = run.Page.FrameworkData(t.Hook.Selector, t.Hook.Path)
		return readErr == nil
	}))
	if err != nil {
		return Fail(types.NewCancelledError(StepTags, err))
	}
	if !ok {
		return Fail(types.NewElementNotFoundError(StepTags, readErr))
	}
	merged := MergeTags(toStrings(current), tags, max)
	if err := dom.WriteHook(run.Page, *t.Hook, merged); err != nil {
		return Fail(types.NewElementNotFoundError(StepTags, err))
	}
	return SuccessWith(fmt.Sprintf("%d tags", len(merged)))
}

func uploadImage(spec *Spec, name string, img *ImageSpec, pick func(*types.ContentPayload) *types.MediaRef) func(context.Context, *Run) Outcome {
	return func(ctx context.Context, run *Run) Outcome {
		ref := pick(run.Payload)
		if ref == nil {
			return Skip("no " + name)
		}
		file, err := run.Media.Resolve(ctx, ref, media.KindImage)
		if err != nil {
			return Fail(err)
		}

		if len(img.Gate) > 0 {
			if _, err := dom.AwaitLocate(ctx, run.Page, img.GateWait, img.Gate...); err != nil {
				if types.KindOf(err) == types.KindCancelled {
					return Fail(err)
				}
				return Fail(types.NewUploadTimeoutError(name, err))
			}
		}
		dismiss(run, spec.Dismiss)

		if err := runClicks(ctx, run, img.Open); err != nil {
			return Fail(err)
		}
		m, err := dom.AwaitLocate(ctx, run.Page, img.InputWait, img.Input...)
		if err != nil {
			return Fail(err)
		}
		if err := dom.Inject(run.Page, m.Selector, file); err != nil {
			return Fail(types.NewElementNotFoundError(name, err))
		}

		if len(img.Loading) > 0 {
			gone, err := dom.AwaitGone(ctx, run.Page, img.SettleWait, img.Loading...)
			if err != nil {
				return Fail(err)
			}
			if !gone {
				return Fail(types.NewUploadTimeoutError(name, fmt.Errorf("图片 %s 上传未完成", file.Name)))
			}
		}

		if err := runClicks(ctx, run, img.Confirm); err != nil {
			return Fail(err)
		}
		return SuccessWith(file.Name)
	}
}

func declareOriginal(spec *Spec) func(context.Context, *Run) Outcome {
	return func(ctx context.Context, run *Run) Outcome {
		o := spec.Original
		m, err := dom.AwaitLocate(ctx, run.Page, o.Wait, o.Target...)
		if err != nil {
			return Fail(err)
		}
		if o.ActiveClass != "" {
			if active, err := run.Page.HasClass(m.Selector, o.ActiveClass); err == nil && active {
				return Skip("already active")
			}
		}
		if err := run.Page.Click(m.Selector); err != nil {
			return Fail(types.NewElementNotFoundError(StepDeclareOriginal, err))
		}
		return Success()
	}
}

func schedule(spec *Spec) func(context.Context, *Run) Outcome {
	return func(ctx context.Context, run *Run) Outcome {
		at := run.Payload.ScheduledAt
		if at == nil {
			return Skip("no schedule")
		}
		if !at.After(time.Now()) {
			return Skip("schedule time passed")
		}
		s := spec.Schedule
		layout := s.Layout
		if layout == "" {
			layout = types.ScheduleLayout
		}
		loc := run.Location
		if loc == nil {
			loc = time.Local
		}

		if err := runClicks(ctx, run, s.Open); err != nil {
			return Fail(err)
		}
		m, err := dom.AwaitLocate(ctx, run.Page, s.Wait, s.Input...)
		if err != nil {
			return Fail(err)
		}
		value := at.In(loc).Format(layout)
		if err := dom.Write(run.Page, m.Selector, s.Mode, value); err != nil {
			return Fail(types.NewElementNotFoundError(StepSchedule, err))
		}
		return SuccessWith(value)
	}
}

func submit(spec *Spec) func(context.Context, *Run) Outcome {
	return func(ctx context.Context, run *Run) Outcome {
		s := spec.Submit
		if s == nil {
			return Skip("manual submit")
		}
		targets := make([]dom.Strategy, 0, len(s.Target))
		for _, t := range s.Target {
			targets = append(targets, t.Enabled())
		}

		var m dom.Match
		ok, err := poll.Await(ctx, s.Wait.Condition(func() bool {
			dismiss(run, spec.Dismiss)
			var found bool
			m, found = dom.Locate(run.Page, targets...)
			return found
		}))
		if err != nil {
			return Fail(types.NewCancelledError(StepSubmit, err))
		}
		if !ok {
			return Fail(types.NewSubmitUnavailableError(StepSubmit, fmt.Errorf("%s 内发布按钮不可用", s.Wait.Duration())))
		}
		if err := run.Page.Click(m.Selector); err != nil {
			return Fail(types.NewSubmitUnavailableError(StepSubmit, err))
		}
		if err := runClicks(ctx, run, s.Confirm); err != nil {
			return Fail(err)
		}
		return Success()
	}
}

// runClicks 依次等待并点击，Optional 的目标找不到时跳过
func runClicks(ctx context.Context, run *Run, clicks []Click) error {
	for _, c := range clicks {
		m, err := dom.AwaitLocate(ctx, run.Page, c.Wait, c.Target...)
		if err != nil {
			if c.Optional && types.KindOf(err) != types.KindCancelled {
				continue
			}
			return err
		}
		if err := run.Page.Click(m.Selector); err != nil {
			if c.Optional {
				continue
			}
			return types.NewElementNotFoundError("click", err)
		}
		if err := poll.Sleep(ctx, c.Pause); err != nil {
			return types.NewCancelledError("click", err)
		}
	}
	return nil
}

// dismiss 关闭可能遮挡操作的弹窗，忽略错误
func dismiss(run *Run, targets []dom.Strategy) {
	for _, t := range targets {
		if m, ok := dom.Locate(run.Page, t); ok {
			_ = run.Page.Click(m.Selector)
		}
	}
}
