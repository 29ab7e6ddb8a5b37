package services

import (
	"log"
	"sync"

	"github.com/borischow0801-web/OMS/constants"
	"github.com/borischow0801-web/OMS/models"
)

// SmsEvent is what the workflow publishes after its transaction
// commits: enough to re-derive template, recipient and content on the
// worker side. The worker owns the SmsRecord lifecycle from here on.
type SmsEvent struct {
	TemplateType string
	TaskID       uint
	RecipientID  *uint
	Extra        map[string]string
}

// SmsQueue decouples workflow transitions from the SMS gateway: a
// buffered channel feeds a single background worker. Events are
// processed in order; every failure, panic included, ends up in the
// SmsRecord table or the log and never reaches a workflow caller.
type SmsQueue struct {
	svc *SmsService
	ch  chan SmsEvent
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewSmsQueue(svc *SmsService, buffer int) *SmsQueue {
	if buffer < 1 {
		buffer = 64
	}
	return &SmsQueue{svc: svc, ch: make(chan SmsEvent, buffer)}
}

// Start launches the worker goroutine.
func (q *SmsQueue) Start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for ev := range q.ch {
			q.process(ev)
		}
	}()
}

// Publish enqueues one event. Publishing after Close is a no-op rather
// than a panic; shutdown races only lose advisory messages.
func (q *SmsQueue) Publish(ev SmsEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		log.Printf("[短信队列] 队列已关闭，丢弃事件 (模板类型: %s, 任务ID: %d)", ev.TemplateType, ev.TaskID)
		return
	}
	q.ch <- ev
}

// Close stops intake and drains everything already queued.
func (q *SmsQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *SmsQueue) process(ev SmsEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[短信队列] 处理事件异常 (模板类型: %s, 任务ID: %d): %v", ev.TemplateType, ev.TaskID, r)
		}
	}()

	task, err := q.svc.taskForEvent(ev.TaskID)
	if err != nil {
		log.Printf("[短信队列] 加载任务失败 (任务ID: %d): %v", ev.TaskID, err)
		return
	}

	switch ev.TemplateType {
	case constants.SmsTaskSubmitted:
		q.svc.SendTaskSubmittedSms(task)
	case constants.SmsTaskReviewed:
		q.svc.SendTaskReviewedSms(task)
	default:
		recipient := q.svc.loadUser(ev.RecipientID)
		q.svc.SendTaskSms(ev.TemplateType, task, recipient, ev.Extra)
	}
}

func (s *SmsService) taskForEvent(id uint) (*models.Task, error) {
	var task models.Task
	if err := s.DB.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}
