package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/remotecommand"
	utilexec "k8s.io/client-go/util/exec"
	"k8s.io/klog/v2"

	"github.com/xdg/termrelay/internal/clog"
	"github.com/xdg/termrelay/internal/config"
)

// ErrPodNotRunning indicates the target pod exists but is not running.
var ErrPodNotRunning = errors.New("pod is not running")

// executorFactory builds a remotecommand executor for an exec request URL.
type executorFactory func(req *rest.Request) (remotecommand.Executor, error)

// KubernetesRuntime runs exec sessions in a pod container through the
// Kubernetes API.
type KubernetesRuntime struct {
	client    kubernetes.Interface
	namespace string
	pod       string
	container string
	executor  executorFactory
}

// NewKubernetesRuntime loads the kubeconfig (cfg.Kubeconfig, else the
// in-cluster config, else the default loading rules) and resolves the
// configured pod and container.
func NewKubernetesRuntime(ctx context.Context, cfg config.ContainerConfig) (*KubernetesRuntime, error) {
	redirectKlog()

	restCfg, err := clientcmd.BuildConfigFromFlags("", cfg.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("kubernetes runtime: build config: %w", err)
	}
	client, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("kubernetes runtime: create client: %w", err)
	}

	spdy := func(req *rest.Request) (remotecommand.Executor, error) {
		return remotecommand.NewSPDYExecutor(restCfg, "POST", req.URL())
	}
	return newKubernetesRuntime(ctx, client, cfg, spdy)
}

func newKubernetesRuntime(ctx context.Context, client kubernetes.Interface, cfg config.ContainerConfig, newExec executorFactory) (*KubernetesRuntime, error) {
	if cfg.Name == "" {
		return nil, errors.New("kubernetes runtime: pod name is required")
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = metav1.NamespaceDefault
	}

	pod, err := client.CoreV1().Pods(namespace).Get(ctx, cfg.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("kubernetes runtime: pod %s/%s not found", namespace, cfg.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("kubernetes runtime: get pod %s/%s: %w", namespace, cfg.Name, err)
	}
	if pod.Status.Phase != corev1.PodRunning {
		return nil, fmt.Errorf("kubernetes runtime: %w: %s/%s is %s", ErrPodNotRunning, namespace, cfg.Name, pod.Status.Phase)
	}

	container, err := pickContainer(pod, cfg.Container)
	if err != nil {
		return nil, fmt.Errorf("kubernetes runtime: %w", err)
	}

	clog.Info("kubernetes runtime: using pod %s/%s container %s", namespace, pod.Name, container)
	return &KubernetesRuntime{
		client:    client,
		namespace: namespace,
		pod:       pod.Name,
		container: container,
		executor:  newExec,
	}, nil
}

// pickContainer returns want if the pod has it, or the pod's only container
// when want is empty.
func pickContainer(pod *corev1.Pod, want string) (string, error) {
	names := make([]string, 0, len(pod.Spec.Containers))
	for _, c := range pod.Spec.Containers {
		names = append(names, c.Name)
	}
	if want != "" {
		if !slices.Contains(names, want) {
			return "", fmt.Errorf("pod %s has no container %q (have %v)", pod.Name, want, names)
		}
		return want, nil
	}
	switch len(names) {
	case 0:
		return "", fmt.Errorf("pod %s has no containers", pod.Name)
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("pod %s has %d containers, set backend.container.container to one of %v", pod.Name, len(names), names)
	}
}

// Name returns "kubernetes".
func (r *KubernetesRuntime) Name() string { return "kubernetes" }

// Target returns namespace/pod/container.
func (r *KubernetesRuntime) Target() string {
	return r.namespace + "/" + r.pod + "/" + r.container
}

// request builds the pods/exec request for argv.
func (r *KubernetesRuntime) request(argv []string, withStderr bool) *rest.Request {
	return r.client.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(r.pod).
		Namespace(r.namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: r.container,
			Command:   argv,
			Stdout:    true,
			Stderr:    withStderr,
			TTY:       false,
		}, scheme.ParameterCodec)
}

// Start opens an exec stream. Cancelling ctx closes the stream; the API
// server does not signal the process in the container.
func (r *KubernetesRuntime) Start(ctx context.Context, argv []string, stdout, stderr io.Writer) (Session, error) {
	exec, err := r.executor(r.request(argv, stderr != nil))
	if err != nil {
		return nil, fmt.Errorf("create executor: %w", err)
	}

	s := &kubeSession{done: make(chan struct{})}
	go func() {
		defer close(s.done)
		s.err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{
			Stdout: stdout,
			Stderr: stderr,
		})
	}()
	return s, nil
}

type kubeSession struct {
	done chan struct{}
	err  error
}

func (s *kubeSession) Wait() (int, error) {
	<-s.done
	var exitErr utilexec.ExitError
	switch {
	case s.err == nil:
		return 0, nil
	case errors.As(s.err, &exitErr):
		return exitErr.ExitStatus(), nil
	default:
		return -1, s.err
	}
}

// redirectKlog sends client-go's klog output to clog at debug level.
func redirectKlog() {
	klog.LogToStderr(false)
	klog.SetOutput(clog.Writer(clog.LevelDebug))
}
