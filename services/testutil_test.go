package services

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/borischow0801-web/OMS/constants"
	"github.com/borischow0801-web/OMS/models"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:servicetest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Comment{},
		&models.TaskAttachment{},
		&models.WorkflowLog{},
		&models.Notification{},
		&models.SmsConfig{},
		&models.SmsTemplate{},
		&models.SmsRecord{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// testUsers holds one account per role plus a second employee for
// reassignment cases.
type testUsers struct {
	Requester models.User
	Admin     models.User
	Manager   models.User
	Employee  models.User
	Employee2 models.User
}

func seedUsers(t *testing.T, db *gorm.DB) testUsers {
	t.Helper()

	u := testUsers{
		Requester: models.User{Username: "zhangsan", Name: "张三", Role: constants.RoleUser, Phone: "13800000001", IsActive: true},
		Admin:     models.User{Username: "admin", Name: "管理员", Role: constants.RoleAdmin, Phone: "13800000002", IsActive: true},
		Manager:   models.User{Username: "lisi", Name: "李四", Role: constants.RoleManager, Phone: "13800000003", IsActive: true},
		Employee:  models.User{Username: "wangwu", Name: "王五", Role: constants.RoleEmployee, Phone: "13800000004", IsActive: true},
		Employee2: models.User{Username: "zhaoliu", Name: "赵六", Role: constants.RoleEmployee, Phone: "13800000005", IsActive: true},
	}
	for _, user := range []*models.User{&u.Requester, &u.Admin, &u.Manager, &u.Employee, &u.Employee2} {
		user.Password = "x"
		if err := db.Create(user).Error; err != nil {
			t.Fatalf("seed user %s: %v", user.Username, err)
		}
	}
	return u
}

// capturePublisher records published events instead of delivering.
type capturePublisher struct {
	events []SmsEvent
}

func (p *capturePublisher) Publish(ev SmsEvent) {
	p.events = append(p.events, ev)
}

// memoryStore keeps attachment bytes in a map and records deletes.
type memoryStore struct {
	files   map[string][]byte
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: map[string][]byte{}}
}

func (s *memoryStore) Save(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	locator := fmt.Sprintf("mem/%d_%s", len(s.files), name)
	s.files[locator] = data
	return locator, nil
}

func (s *memoryStore) Open(locator string) (io.ReadCloser, error) {
	data, ok := s.files[locator]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memoryStore) Delete(locator string) error {
	delete(s.files, locator)
	s.deleted = append(s.deleted, locator)
	return nil
}
