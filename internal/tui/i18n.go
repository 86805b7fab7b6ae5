package tui

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var chinese = language.MustParse("zh")

var supportedTags = []language.Tag{language.English, chinese}

var tagMatcher = language.NewMatcher(supportedTags)

func init() {
	en := language.English
	message.SetString(en, "focus.title", "Focus Time")
	message.SetString(en, "break.title", "Break Time")
	message.SetString(en, "completed_today", "Completed today: %d sessions")
	message.SetString(en, "working_on", "Working on: %s")
	message.SetString(en, "no_task", "No task selected. Press t to pick one.")
	message.SetString(en, "state.idle", "Ready")
	message.SetString(en, "state.running", "Running")
	message.SetString(en, "state.paused", "Paused")
	message.SetString(en, "hint.idle", "s: start  t: tasks")
	message.SetString(en, "hint.running", "space: pause  x: stop")
	message.SetString(en, "hint.paused", "s/space: resume  x: stop")
	message.SetString(en, "hint.break", "n: skip break")
	message.SetString(en, "status.focus_done", "Focus session complete. Time for a break.")
	message.SetString(en, "status.break_done", "Break over. Back to focus.")
	message.SetString(en, "status.stopped", "Session stopped")
	message.SetString(en, "status.skipped", "Break skipped")
	message.SetString(en, "mode.offline", "offline")
	message.SetString(en, "mode.online", "synced")

	zh := chinese
	message.SetString(zh, "focus.title", "专注时间")
	message.SetString(zh, "break.title", "休息时间")
	message.SetString(zh, "completed_today", "今日已完成：%d 个番茄")
	message.SetString(zh, "working_on", "当前任务：%s")
	message.SetString(zh, "no_task", "未选择任务，按 t 选择。")
	message.SetString(zh, "state.idle", "就绪")
	message.SetString(zh, "state.running", "进行中")
	message.SetString(zh, "state.paused", "已暂停")
	message.SetString(zh, "hint.idle", "s: 开始  t: 任务")
	message.SetString(zh, "hint.running", "space: 暂停  x: 停止")
	message.SetString(zh, "hint.paused", "s/space: 继续  x: 停止")
	message.SetString(zh, "hint.break", "n: 跳过休息")
	message.SetString(zh, "status.focus_done", "专注完成，休息一下吧。")
	message.SetString(zh, "status.break_done", "休息结束，继续专注。")
	message.SetString(zh, "status.stopped", "已停止")
	message.SetString(zh, "status.skipped", "已跳过休息")
	message.SetString(zh, "mode.offline", "离线")
	message.SetString(zh, "mode.online", "已同步")
}

// printerFor returns a printer for a preference language code such as "en"
// or "zh". Unknown codes fall back to English.
func printerFor(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		return message.NewPrinter(language.English)
	}
	_, idx, _ := tagMatcher.Match(tag)
	return message.NewPrinter(supportedTags[idx])
}
