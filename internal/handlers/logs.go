package handlers

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"collegeportal/internal/logger"
	"collegeportal/internal/utils/helpers"
)

// AdminLogsHandler — просмотр JSON-логов для админа: неудачные входы, сбросы паролей и т.п.
// Читает текущий app.log и ротированные lumberjack-файлы (app-<timestamp>.log[.gz]).
type AdminLogsHandler struct {
	LogDir    string
	Retention int // дней
	now       func() time.Time
}

func NewAdminLogsHandler(dir string) *AdminLogsHandler {
	return &AdminLogsHandler{LogDir: dir, Retention: 14, now: time.Now}
}

type logEntry struct {
	Level  string
	Time   time.Time
	UserID string
}

// GetLogs godoc
// @Summary      Логи за день
// @Description  Строки JSON-логов за день с фильтрами по уровню, пользователю и подстроке.
// @Tags         admin-logs
// @Security     ApiKeyAuth
// @Produce      json
// @Param        day     query  string true  "Дата (YYYY-MM-DD)"
// @Param        level   query  string false "CSV уровней: debug,info,warn,error"
// @Param        user_id query  string false "ID пользователя"
// @Param        q       query  string false "Поиск по подстроке"
// @Param        limit   query  int    false "Лимит (по умолч. 200, макс. 1000)"
// @Param        cursor  query  int    false "Сколько совпадений пропустить"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} helpers.Response "bad day"
// @Failure      404 {object} helpers.Response "no logs"
// @Router       /api/admin/logs [get]
func (h *AdminLogsHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day, err := time.ParseInLocation("2006-01-02", q.Get("day"), time.Local)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad day")
		return
	}

	levels := upperSet(q.Get("level"))
	userID := strings.TrimSpace(q.Get("user_id"))
	var search *regexp.Regexp
	if s := strings.TrimSpace(q.Get("q")); s != "" {
		search = regexp.MustCompile("(?i)" + regexp.QuoteMeta(s))
	}
	limit := clampAtoi(q.Get("limit"), 200, 1, 1000)
	cursor := clampAtoi(q.Get("cursor"), 0, 0, 10_000_000)

	skipped := 0
	items := make([]json.RawMessage, 0)
	err = h.forEachLine(func(raw []byte, e logEntry) bool {
		if !sameDay(e.Time, day) {
			return true
		}
		if len(levels) > 0 && !levels[e.Level] {
			return true
		}
		if userID != "" && e.UserID != userID {
			return true
		}
		if search != nil && !search.Match(raw) {
			return true
		}
		if skipped < cursor {
			skipped++
			return true
		}
		items = append(items, append([]byte{}, raw...))
		return len(items) < limit
	})
	if err != nil {
		helpers.Error(w, http.StatusNotFound, "no logs")
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]any{
		"day":         q.Get("day"),
		"items":       items,
		"next_cursor": cursor + len(items),
	})
}

// Summary godoc
// @Summary      Сводка по уровням логов
// @Description  Количество записей по уровням за последние N дней (по умолчанию 7).
// @Tags         admin-logs
// @Security     ApiKeyAuth
// @Produce      json
// @Param        days query int false "Количество дней"
// @Success      200 {object} map[string]interface{}
// @Router       /api/admin/logs/summary [get]
func (h *AdminLogsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	days := clampAtoi(r.URL.Query().Get("days"), 7, 1, h.Retention)
	from := startOfDay(h.now()).AddDate(0, 0, -(days - 1))

	total := 0
	levels := map[string]int{}
	byDay := map[string]map[string]int{}
	_ = h.forEachLine(func(_ []byte, e logEntry) bool {
		if e.Time.Before(from) || e.Level == "" {
			return true
		}
		d := e.Time.In(time.Local).Format("2006-01-02")
		if byDay[d] == nil {
			byDay[d] = map[string]int{}
		}
		byDay[d][e.Level]++
		levels[e.Level]++
		total++
		return true
	})

	helpers.JSON(w, http.StatusOK, map[string]any{
		"total":  total,
		"levels": levels,
		"by_day": byDay,
	})
}

// files — ротированные файлы по порядку имён (lumberjack кладёт timestamp в имя), текущий app.log последним.
func (h *AdminLogsHandler) files() ([]string, error) {
	entries, err := os.ReadDir(h.LogDir)
	if err != nil {
		return nil, err
	}
	var rotated []string
	current := ""
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir():
		case name == "app.log":
			current = filepath.Join(h.LogDir, name)
		case strings.HasPrefix(name, "app-") && (strings.HasSuffix(name, ".log") || strings.HasSuffix(name, ".log.gz")):
			rotated = append(rotated, filepath.Join(h.LogDir, name))
		}
	}
	sort.Strings(rotated)
	if current != "" {
		rotated = append(rotated, current)
	}
	if len(rotated) == 0 {
		return nil, os.ErrNotExist
	}
	return rotated, nil
}

// forEachLine отдаёт JSON-строки всех файлов; не-JSON строки пропускаются.
func (h *AdminLogsHandler) forEachLine(handle func(raw []byte, e logEntry) bool) error {
	paths, err := h.files()
	if err != nil {
		return err
	}
	for _, path := range paths {
		if !h.scanFile(path, handle) {
			break
		}
	}
	return nil
}

func (h *AdminLogsHandler) scanFile(path string, handle func([]byte, logEntry) bool) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return true
		}
		defer gz.Close()
		reader = gz
	}

	sc := bufio.NewScanner(reader)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var obj struct {
			Level  string `json:"level"`
			Time   string `json:"time"`
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(sc.Bytes(), &obj); err != nil {
			continue
		}
		ts, err := time.Parse(logger.TimeLayout, obj.Time)
		if err != nil {
			continue
		}
		if !handle(sc.Bytes(), logEntry{Level: strings.ToUpper(obj.Level), Time: ts, UserID: obj.UserID}) {
			return false
		}
	}
	return true
}

func sameDay(t, day time.Time) bool {
	return startOfDay(t).Equal(day)
}

func startOfDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func upperSet(csv string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			m[strings.ToUpper(p)] = true
		}
	}
	return m
}

func clampAtoi(s string, def, lo, hi int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
