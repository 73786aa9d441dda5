package k8s

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/menestis/skynet/internal/orchestrator"
)

func TestCreatePodSetsManagedByAndPropertyLabels(t *testing.T) {
	client := fake.NewSimpleClientset()
	o := New(client, "default", logr.Discard())

	err := o.CreatePod(context.Background(), orchestrator.CreateSpec{
		Kind:       "mini",
		Image:      "img:latest",
		Name:       "mini-x-00001",
		Properties: map[string]string{"slots": "8"},
		Env:        map[string]string{"SKYNET_URL": "http://skynet"},
	})
	require.NoError(t, err)

	pod, err := client.CoreV1().Pods("default").Get(context.Background(), "mini-x-00001", metav1.GetOptions{})
	require.NoError(t, err)
	require.Equal(t, LabelManagedByValue, pod.Labels[LabelManagedBy])
	require.Equal(t, "mini", pod.Labels[LabelKind])
	require.Equal(t, "8", pod.Labels[PropertyLabelPrefix+"slots"])
}

func TestDeletePodTreatsNotFoundAsSuccess(t *testing.T) {
	client := fake.NewSimpleClientset()
	o := New(client, "default", logr.Discard())
	require.NoError(t, o.DeletePod(context.Background(), "does-not-exist"))
}

func TestAddFinalizerAndIDThenRemoveFinalizer(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "mini-x-00001", Namespace: "default"},
	})
	o := New(client, "default", logr.Discard())

	require.NoError(t, o.AddFinalizerAndID(context.Background(), "mini-x-00001", "sky-abc-net"))
	pod, err := client.CoreV1().Pods("default").Get(context.Background(), "mini-x-00001", metav1.GetOptions{})
	require.NoError(t, err)
	require.True(t, pod.Finalizers != nil && pod.Finalizers[0] == Finalizer)
	require.Equal(t, "sky-abc-net", pod.Labels["skynet_id"])

	require.NoError(t, o.RemoveFinalizer(context.Background(), "mini-x-00001"))
	pod, err = client.CoreV1().Pods("default").Get(context.Background(), "mini-x-00001", metav1.GetOptions{})
	require.NoError(t, err)
	require.Empty(t, pod.Finalizers)
}

func TestToPodReflectsPhaseIPAndFinalizers(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "p", Finalizers: []string{Finalizer}},
		Status:     corev1.PodStatus{PodIP: "10.0.0.1", Phase: corev1.PodRunning},
	}
	out := toPod(pod)
	require.Equal(t, "10.0.0.1", out.IP)
	require.Equal(t, orchestrator.PodRunning, out.Phase)
	require.True(t, out.HasFinalizer(Finalizer))
}
