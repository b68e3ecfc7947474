package planstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"

	"compactd/pkg/compaction"
	"compactd/pkg/dberrors"
)

const (
	pendingSubPath   = "compaction/pending"
	connectWaitDelay = 200 * time.Millisecond
)

// ZooKeeper stores pending plans as persistent znodes under
// <root>/compaction/pending/<instant>, one JSON document per plan. Several
// schedulers can share it.
type ZooKeeper struct {
	conn     *zk.Conn
	rootPath string
}

var _ Store = (*ZooKeeper)(nil)

// NewZooKeeper connects to servers (e.g. ["zk1:2181", "zk2:2181"]) and waits
// up to connectTimeout for a session before creating the plan root.
func NewZooKeeper(servers []string, rootPath string, sessionTimeout, connectTimeout time.Duration) (*ZooKeeper, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("zk connect: %w", err)
	}

	s := &ZooKeeper{
		conn:     conn,
		rootPath: strings.TrimSuffix(rootPath, "/"),
	}
	if err := s.waitConnected(connectTimeout); err != nil {
		conn.Close()
		return nil, err
	}
	if err := s.ensurePath(s.pendingPath()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure pending path: %w", err)
	}

	slog.Info("zookeeper plan store ready", "path", s.pendingPath())
	return s, nil
}

func (s *ZooKeeper) pendingPath() string {
	return path.Join("/", s.rootPath, pendingSubPath)
}

func (s *ZooKeeper) planPath(instant string) string {
	return path.Join(s.pendingPath(), instant)
}

func (s *ZooKeeper) Put(ctx context.Context, plan compaction.Plan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateInstant(plan.InstantTime); err != nil {
		return err
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan %s: %w", plan.InstantTime, err)
	}

	_, err = s.conn.Create(s.planPath(plan.InstantTime), data, 0, zk.WorldACL(zk.PermAll))
	if errors.Is(err, zk.ErrNodeExists) {
		return fmt.Errorf("%w: instant %s", dberrors.ErrCompactionPending, plan.InstantTime)
	}
	if err != nil {
		return fmt.Errorf("zk create plan %s: %w", plan.InstantTime, err)
	}
	return nil
}

func (s *ZooKeeper) Get(ctx context.Context, instant string) (compaction.Plan, error) {
	if err := ctx.Err(); err != nil {
		return compaction.Plan{}, err
	}
	if err := validateInstant(instant); err != nil {
		return compaction.Plan{}, err
	}
	return s.read(instant)
}

func (s *ZooKeeper) read(instant string) (compaction.Plan, error) {
	data, _, err := s.conn.Get(s.planPath(instant))
	if errors.Is(err, zk.ErrNoNode) {
		return compaction.Plan{}, fmt.Errorf("%w: instant %s", dberrors.ErrNotFound, instant)
	}
	if err != nil {
		return compaction.Plan{}, fmt.Errorf("zk get plan %s: %w", instant, err)
	}

	var plan compaction.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return compaction.Plan{}, fmt.Errorf("decode plan %s: %w", instant, err)
	}
	return plan, nil
}

func (s *ZooKeeper) Delete(ctx context.Context, instant string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateInstant(instant); err != nil {
		return err
	}

	err := s.conn.Delete(s.planPath(instant), -1)
	if errors.Is(err, zk.ErrNoNode) {
		return fmt.Errorf("%w: instant %s", dberrors.ErrNotFound, instant)
	}
	if err != nil {
		return fmt.Errorf("zk delete plan %s: %w", instant, err)
	}
	return nil
}

func (s *ZooKeeper) List(ctx context.Context) ([]compaction.Plan, error) {
	children, _, err := s.conn.Children(s.pendingPath())
	if err != nil {
		return nil, fmt.Errorf("zk children: %w", err)
	}
	sort.Strings(children)

	plans := make([]compaction.Plan, 0, len(children))
	for _, instant := range children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		plan, err := s.read(instant)
		if errors.Is(err, dberrors.ErrNotFound) {
			// removed between Children and Get
			continue
		}
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (s *ZooKeeper) Close() error {
	s.conn.Close()
	return nil
}

func (s *ZooKeeper) ensurePath(p string) error {
	cur := ""
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		cur = cur + "/" + part
		exists, _, err := s.conn.Exists(cur)
		if err != nil {
			return err
		}
		if !exists {
			_, err = s.conn.Create(cur, nil, 0, zk.WorldACL(zk.PermAll))
			if err != nil && !errors.Is(err, zk.ErrNodeExists) {
				return err
			}
		}
	}
	return nil
}

func (s *ZooKeeper) waitConnected(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		st := s.conn.State()
		if st == zk.StateConnected || st == zk.StateHasSession {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("zk: not connected after %s, state=%v", timeout, st)
		}
		time.Sleep(connectWaitDelay)
	}
}
