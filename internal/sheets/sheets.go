package sheets

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/vitaplus/vitabot/helper"
)

// Имена листов таблицы (русский язык)
const (
	SheetSpecialists = "Специалисты"
	SheetSchedule    = "Расписание"
	SheetDaysOff     = "Выходные"
	SheetBookings    = "Записи"
	SheetAdminLogs   = "Логи Админа"
	SheetErrors      = "Ошибки"
)

var worksheetHeaders = map[string][]string{
	SheetSpecialists: {"ID", "ФИ", "Специализация", "Телефон", "Email", "Активен", "Создано", "Обновлено"},
	SheetSchedule:    {"ID", "Специалист ID", "День недели", "Время начала", "Время конца", "Доступен", "Создано", "Обновлено"},
	SheetDaysOff:     {"ID", "Специалист ID", "Дата", "Причина", "Создано"},
	SheetBookings:    {"ID", "Специалист ID", "Клиент", "Дата/Время", "Длительность мин", "Заметки", "Статус", "Создано", "Обновлено"},
	SheetAdminLogs:   {"ID", "Тип действия", "Тип ресурса", "ID ресурса", "Описание", "Выполнил", "Создано"},
	SheetErrors:      {"ID", "Тип ошибки", "Сообщение", "Контекст", "Трассировка стека", "Создано"},
}

// Manager работа с Google Таблицей: авторизация, листы, двусторонняя синхронизация.
type Manager struct {
	service       *sheetsapi.Service
	spreadsheetID string
	sheetIDs      map[string]int64 // имя листа -> внутренний sheetId
}

// NewManager авторизуется по сервисному аккаунту и готовит все требуемые листы.
func NewManager(ctx context.Context) (*Manager, error) {
	spreadsheetID := viper.GetString("sheets.spreadsheet_id")
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet_id is not configured")
	}

	serviceAccountPath := viper.GetString("sheets.service_account")
	credentials, err := os.ReadFile(serviceAccountPath)
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to read service account file %s: %w", serviceAccountPath, err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentials, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: invalid service account credentials: %w", err)
	}

	service, err := sheetsapi.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}
	log.Printf("Авторизация в Google Sheets выполнена: %s", serviceAccountPath)

	m := &Manager{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}

	if err := m.ensureWorksheets(ctx); err != nil {
		return nil, err
	}
	log.Println("Все требуемые листы таблицы инициализированы")

	m.logAdminAction(ctx, "init", "sheets", 0, "Google Sheets manager initialized", "system")
	return m, nil
}

// Ping проверяет доступность таблицы.
func (m *Manager) Ping(ctx context.Context) error {
	_, err := m.service.Spreadsheets.Get(m.spreadsheetID).
		Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: spreadsheet unavailable: %w", err)
	}
	return nil
}

// ensureWorksheets создаёт отсутствующие листы и проставляет заголовки.
func (m *Manager) ensureWorksheets(ctx context.Context) error {
	return helper.Retry(ctx, "sheets.ensure_worksheets",
		helper.DefaultRetryAttempts, helper.DefaultRetryMinDelay, helper.DefaultRetryMaxDelay,
		func() error {
			spreadsheet, err := m.service.Spreadsheets.Get(m.spreadsheetID).Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("failed to open spreadsheet: %w", err)
			}

			existing := make(map[string]int64)
			for _, sheet := range spreadsheet.Sheets {
				existing[sheet.Properties.Title] = sheet.Properties.SheetId
			}

			for _, name := range []string{SheetSpecialists, SheetSchedule, SheetDaysOff, SheetBookings, SheetAdminLogs, SheetErrors} {
				if id, ok := existing[name]; ok {
					m.sheetIDs[name] = id
					continue
				}

				log.Printf("Создание листа: %s", name)
				resp, err := m.service.Spreadsheets.BatchUpdate(m.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
					Requests: []*sheetsapi.Request{{
						AddSheet: &sheetsapi.AddSheetRequest{
							Properties: &sheetsapi.SheetProperties{Title: name},
						},
					}},
				}).Context(ctx).Do()
				if err != nil {
					return fmt.Errorf("failed to create worksheet %s: %w", name, err)
				}
				m.sheetIDs[name] = resp.Replies[0].AddSheet.Properties.SheetId

				if err := m.appendRow(ctx, name, toRow(worksheetHeaders[name])); err != nil {
					log.Printf("Не удалось записать заголовки листа %s: %v", name, err)
				}
			}
			return nil
		})
}

// appendRow добавляет строку в конец листа.
func (m *Manager) appendRow(ctx context.Context, sheetName string, row []interface{}) error {
	_, err := m.service.Spreadsheets.Values.Append(m.spreadsheetID, sheetName+"!A:Z",
		&sheetsapi.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}

// readRows возвращает строки листа без заголовка.
func (m *Manager) readRows(ctx context.Context, sheetName string) ([][]interface{}, error) {
	resp, err := m.service.Spreadsheets.Values.Get(m.spreadsheetID, sheetName+"!A:Z").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Values) <= 1 {
		return nil, nil
	}
	return resp.Values[1:], nil
}

// updateRow перезаписывает строку листа. rowIndex считается с единицы, включая заголовок.
func (m *Manager) updateRow(ctx context.Context, sheetName string, rowIndex int, row []interface{}) error {
	rangeA1 := fmt.Sprintf("%s!A%d", sheetName, rowIndex)
	_, err := m.service.Spreadsheets.Values.Update(m.spreadsheetID, rangeA1,
		&sheetsapi.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	return err
}

// deleteRow удаляет строку листа. rowIndex считается с единицы, включая заголовок.
func (m *Manager) deleteRow(ctx context.Context, sheetName string, rowIndex int) error {
	sheetID, ok := m.sheetIDs[sheetName]
	if !ok {
		return fmt.Errorf("sheets: worksheet %q not initialized", sheetName)
	}
	_, err := m.service.Spreadsheets.BatchUpdate(m.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex - 1),
					EndIndex:   int64(rowIndex),
				},
			},
		}},
	}).Context(ctx).Do()
	return err
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// cell безопасно извлекает ячейку строки как текст.
func cell(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}

func cellInt(row []interface{}, idx int) int {
	n, _ := strconv.Atoi(cell(row, idx))
	return n
}

func cellBool(row []interface{}, idx int) bool {
	switch strings.ToLower(cell(row, idx)) {
	case "да", "true", "1":
		return true
	}
	return false
}

func boolCell(v bool) string {
	if v {
		return "Да"
	}
	return "Нет"
}

// parseTimestamp разбирает метку времени в ISO и распространённых форматах.
func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"02/01/2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	log.Printf("Не удалось разобрать метку времени: %q", value)
	return time.Time{}
}
